package main

import (
	"fmt"

	"github.com/newthinker/finwindow/internal/config"
	"github.com/newthinker/finwindow/internal/logger"
	"github.com/newthinker/finwindow/internal/series"
	"github.com/newthinker/finwindow/internal/storage/archive"
	"go.uber.org/zap"
)

// setup loads --config (or defaults), validates it and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	log := logger.Must(debug || cfg.Log.Development)
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}
	return cfg, log, nil
}

// newStorage builds the configured flat-file backend. S3 credentials come
// from the config only.
func newStorage(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Source.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Source.S3.Bucket,
			Endpoint:  cfg.Source.S3.Endpoint,
			Region:    cfg.Source.S3.Region,
			AccessKey: cfg.Source.S3.AccessKey,
			SecretKey: cfg.Source.S3.SecretKey,
			Prefix:    cfg.Source.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Source.Path)
	}
}

func newLoader(cfg *config.Config, store archive.Storage, symbols []string, log *zap.Logger) *series.Loader {
	if len(symbols) == 0 {
		symbols = cfg.Series.Symbols
	}
	return series.NewLoader(store, series.Options{
		Layout: series.Layout{
			KeyColumn:  cfg.Series.KeyColumn,
			TimeColumn: cfg.Series.TimeColumn,
		},
		ValueColumn: cfg.Series.ValueColumn,
		Symbols:     symbols,
	}, log)
}
