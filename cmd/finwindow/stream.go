package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/newthinker/finwindow/internal/series"
	"github.com/newthinker/finwindow/internal/window"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	streamIndicators []string
	streamColumn     string
	streamReady      bool
)

var streamCmd = &cobra.Command{
	Use:   "stream [file]",
	Short: "Compute indicators row by row over a CSV feed",
	Long: `Read flat-file rows in arrival order (from a file or stdin) and emit
one JSON line per row and indicator. Each ticker keeps its own state, so
rows of different tickers may interleave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStream,
}

func init() {
	streamCmd.Flags().StringArrayVarP(&streamIndicators, "indicator", "i", nil, "Indicator (repeatable; overrides config)")
	streamCmd.Flags().StringVar(&streamColumn, "column", "", "Value column (default: config series.value_column)")
	streamCmd.Flags().BoolVar(&streamReady, "ready-only", false, "Only emit rows with a defined value")

	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if len(streamIndicators) > 0 {
		cfg.Indicators = streamIndicators
	}
	if streamColumn != "" {
		cfg.Series.ValueColumn = streamColumn
	}
	specs, err := cfg.IndicatorSpecs()
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	br, err := series.NewBarReader(in, series.Layout{
		KeyColumn:  cfg.Series.KeyColumn,
		TimeColumn: cfg.Series.TimeColumn,
	})
	if err != nil {
		return err
	}
	stream, err := window.NewStream(specs, nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	rows := 0
	for {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		bar, err := br.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading feed: %w", err)
		}
		v, ok := bar.Field(cfg.Series.ValueColumn)
		if !ok {
			return fmt.Errorf("unknown value column %q", cfg.Series.ValueColumn)
		}
		rows++

		for _, out := range stream.Push(bar.Ticker, v) {
			if streamReady && !out.Value.Valid {
				continue
			}
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
	}

	log.Info("stream finished",
		zap.Int("rows", rows),
		zap.Int("malformed", br.Malformed()),
		zap.Strings("keys", stream.Keys()))
	return nil
}
