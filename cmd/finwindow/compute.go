package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/finwindow/internal/config"
	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/metrics"
	"github.com/newthinker/finwindow/internal/series"
	"github.com/newthinker/finwindow/internal/storage/archive"
	"github.com/newthinker/finwindow/internal/window"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	computeIndicators []string
	computeSymbols    []string
	computePrefix     string
	computeAsset      string
	computeDataType   string
	computeFrom       string
	computeTo         string
	computeOutput     string
	computeSave       string
	computeColumn     string
	computeWorkers    int
)

var computeCmd = &cobra.Command{
	Use:   "compute [file...]",
	Short: "Compute indicators over flat files",
	Long: `Compute indicators over aggregate flat files and write CSV results.

Input is chosen by explicit file paths, by --prefix, or by a date range
(--from/--to) resolved against the flat-file layout for --asset and --type.`,
	Example: `  finwindow compute -i "sma(20)" -i "rsi(14)" --symbol AAPL --from 2024-01-02 --to 2024-03-28
  finwindow compute --prefix us_stocks_sip/day_aggs_v1/2024 -o out.csv
  finwindow compute --prefix us_stocks_sip/day_aggs_v1/2024/01 --save results/2024-01.csv`,
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().StringArrayVarP(&computeIndicators, "indicator", "i", nil, `Indicator, e.g. "sma(20)" or "macd" (repeatable; overrides config)`)
	computeCmd.Flags().StringSliceVar(&computeSymbols, "symbol", nil, "Tickers to keep (default: config series.symbols, or all)")
	computeCmd.Flags().StringVar(&computePrefix, "prefix", "", "Load every data file under this prefix")
	computeCmd.Flags().StringVar(&computeAsset, "asset", "stocks", "Asset class for --from/--to")
	computeCmd.Flags().StringVar(&computeDataType, "type", "day", "Aggregate type for --from/--to (day or minute)")
	computeCmd.Flags().StringVar(&computeFrom, "from", "", "Start date YYYY-MM-DD")
	computeCmd.Flags().StringVar(&computeTo, "to", "", "End date YYYY-MM-DD (default: --from)")
	computeCmd.Flags().StringVarP(&computeOutput, "output", "o", "", "Output CSV path (default: stdout)")
	computeCmd.Flags().StringVar(&computeSave, "save", "", "Write results to this path on the configured source storage instead of -o")
	computeCmd.Flags().StringVar(&computeColumn, "column", "", "Value column (default: config series.value_column)")
	computeCmd.Flags().IntVarP(&computeWorkers, "workers", "w", 0, "Worker goroutines (default: config driver.workers)")

	computeCmd.MarkFlagsMutuallyExclusive("prefix", "from")

	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if computeColumn != "" {
		cfg.Series.ValueColumn = computeColumn
	}
	if len(computeIndicators) > 0 {
		cfg.Indicators = computeIndicators
	}
	if computeWorkers > 0 {
		cfg.Driver.Workers = computeWorkers
	}
	specs, err := cfg.IndicatorSpecs()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	loader := newLoader(cfg, store, computeSymbols, log)
	if reg != nil {
		loader.SetMetrics(reg)
	}

	parts, err := loadPartitions(ctx, loader, store, args, log)
	if err != nil {
		return err
	}

	driver := window.NewDriver(cfg.Driver.Workers, log)
	if reg != nil {
		driver.SetMetrics(reg)
	}
	results, err := driver.Run(ctx, specs, parts)
	if err != nil {
		return fmt.Errorf("computing indicators: %w", err)
	}

	output := outputName(computeOutput)
	if computeSave != "" {
		if err := series.Save(ctx, store, computeSave, results); err != nil {
			return fmt.Errorf("saving results: %w", err)
		}
		output = archive.Name(store) + ":" + computeSave
	} else if err := writeResults(results, computeOutput, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	log.Info("compute finished",
		zap.Int("partitions", len(results)),
		zap.Stringers("indicators", specs),
		zap.String("output", output))

	return dumpMetrics(cfg, reg, log)
}

// loadPartitions resolves the input selection to partitions.
func loadPartitions(ctx context.Context, loader *series.Loader, store archive.Storage, args []string, log *zap.Logger) ([]core.Partition, error) {
	switch {
	case len(args) > 0:
		return loader.Load(ctx, args...)
	case computePrefix != "":
		return loader.LoadPrefix(ctx, computePrefix)
	case computeFrom != "":
		paths, err := datePaths(ctx, store, log)
		if err != nil {
			return nil, err
		}
		return loader.Load(ctx, paths...)
	default:
		return nil, fmt.Errorf("no input: pass file paths, --prefix or --from")
	}
}

// datePaths lists the flat files for each day in --from..--to that exist.
// Missing days (weekends, holidays) are skipped.
func datePaths(ctx context.Context, store archive.Storage, log *zap.Logger) ([]string, error) {
	from, err := time.Parse(time.DateOnly, computeFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	to := from
	if computeTo != "" {
		to, err = time.Parse(time.DateOnly, computeTo)
		if err != nil {
			return nil, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date must not be before start date")
	}

	var paths []string
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		p, err := series.FlatFilePath(computeAsset, computeDataType, day)
		if err != nil {
			return nil, err
		}
		ok, err := store.Exists(ctx, p)
		if err != nil {
			return nil, core.WrapError(core.ErrSourceFailed, err)
		}
		if !ok {
			log.Debug("no file for day", zap.String("path", p))
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no %s %s files between %s and %s", computeAsset, computeDataType, computeFrom, to.Format(time.DateOnly)))
	}
	return paths, nil
}

func writeResults(results []window.Result, path string, stdout io.Writer) error {
	if path == "" {
		return series.WriteCSV(stdout, results)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := series.WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

// dumpMetrics writes the node-exporter textfile when one is configured.
func dumpMetrics(cfg *config.Config, reg *metrics.Registry, log *zap.Logger) error {
	if reg == nil || cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := reg.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	log.Debug("metrics written", zap.String("path", cfg.Metrics.Textfile))
	return nil
}
