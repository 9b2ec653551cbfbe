// Package series turns aggregate flat files into ordered partitions and
// writes indicator results back out as CSV.
package series

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/logger"
	"github.com/newthinker/finwindow/internal/metrics"
	"github.com/newthinker/finwindow/internal/storage/archive"
	"go.uber.org/zap"
)

// Options controls how flat files map onto partitions.
type Options struct {
	Layout      Layout
	ValueColumn string
	Symbols     []string
}

// Loader reads flat files from a storage backend.
type Loader struct {
	store   archive.Storage
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewLoader creates a loader. Zero-valued options fall back to the
// aggregate file layout and the close column.
func NewLoader(store archive.Storage, opts Options, log *zap.Logger) *Loader {
	if opts.Layout.KeyColumn == "" {
		opts.Layout.KeyColumn = DefaultLayout.KeyColumn
	}
	if opts.Layout.TimeColumn == "" {
		opts.Layout.TimeColumn = DefaultLayout.TimeColumn
	}
	if opts.ValueColumn == "" {
		opts.ValueColumn = "close"
	}
	return &Loader{store: store, opts: opts, logger: logger.OrNop(log)}
}

// SetMetrics attaches a metrics registry.
func (l *Loader) SetMetrics(reg *metrics.Registry) {
	l.metrics = reg
}

// Files lists the data files under prefix.
func (l *Loader) Files(ctx context.Context, prefix string) ([]string, error) {
	paths, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, sourceError(err, "listing %q", prefix)
	}
	files := paths[:0]
	for _, p := range paths {
		if IsDataFile(p) {
			files = append(files, p)
		}
	}
	return files, nil
}

// ReadFile decodes one flat file, decompressing .gz files on the fly.
func (l *Loader) ReadFile(ctx context.Context, path string) ([]core.Bar, error) {
	rc, err := l.store.Open(ctx, path)
	if err != nil {
		return nil, sourceError(err, "opening %q", path)
	}
	defer rc.Close()

	var r io.Reader = bufio.NewReader(rc)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("decompressing %q: %w", path, err))
		}
		defer gz.Close()
		r = gz
	}

	bars, malformed, err := ReadBars(r, l.opts.Layout)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	if malformed > 0 {
		l.logger.Warn("skipped malformed rows",
			zap.String("path", path),
			zap.Int("malformed", malformed))
	}
	if l.metrics != nil {
		l.metrics.RecordLoad(archive.Name(l.store), len(bars), malformed)
	}
	return bars, nil
}

// Load reads every path and returns the combined partitions. Rows for the
// same ticker spread over several files end up in one partition.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]core.Partition, error) {
	if len(paths) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no input files"))
	}

	keep := symbolSet(l.opts.Symbols)
	var bars []core.Bar
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileBars, err := l.ReadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, b := range fileBars {
			if keep != nil {
				if _, ok := keep[b.Ticker]; !ok {
					continue
				}
			}
			bars = append(bars, b)
		}
		l.logger.Debug("loaded file", zap.String("path", p), zap.Int("rows", len(fileBars)))
	}
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no rows in %d file(s) for symbols %v", len(paths), l.opts.Symbols))
	}

	return Partitions(bars, l.opts.ValueColumn, nil)
}

// LoadPrefix loads every data file under prefix.
func (l *Loader) LoadPrefix(ctx context.Context, prefix string) ([]core.Partition, error) {
	files, err := l.Files(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data files under %q", prefix))
	}
	return l.Load(ctx, files...)
}

// sourceError marks storage failures as ErrSourceFailed. Rejected paths are
// the caller's mistake and keep their own code.
func sourceError(err error, format string, args ...any) error {
	if errors.Is(err, core.ErrInvalidPath) {
		return err
	}
	return core.WrapError(core.ErrSourceFailed, fmt.Errorf(format+": %w", append(args, err)...))
}
