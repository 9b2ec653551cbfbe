package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/finwindow/internal/api"
	"github.com/newthinker/finwindow/internal/metrics"
	"github.com/newthinker/finwindow/internal/window"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the finwindow HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	specs, err := cfg.IndicatorSpecs()
	if err != nil {
		return err
	}

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}

	driver := window.NewDriver(cfg.Driver.Workers, log)
	loader := newLoader(cfg, store, nil, log)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		driver.SetMetrics(reg)
		loader.SetMetrics(reg)
	}

	log.Info("starting finwindow server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("source", cfg.Source.Type),
		zap.Stringers("indicators", specs),
	)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		Driver:     driver,
		Loader:     loader,
		Metrics:    reg,
		Indicators: specs,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down finwindow server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
