// Package window drives indicator engines over partitioned data.
//
// Each partition gets its own engine per indicator, stepped in row order by
// a single goroutine. Partitions never share state, which makes them the
// unit of parallelism.
package window

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/indicator"
	"github.com/newthinker/finwindow/internal/logger"
	"github.com/newthinker/finwindow/internal/metrics"
	"go.uber.org/zap"
)

// Column is one indicator's output over a partition.
type Column struct {
	Name   string       `json:"name"`
	Values []core.Value `json:"values"`
}

// Result holds the outputs of all indicators for one partition, aligned
// row for row with its observations.
type Result struct {
	Key     string      `json:"key"`
	Index   []int64     `json:"index"`
	Time    []time.Time `json:"time"`
	Columns []Column    `json:"columns"`
}

// Len returns the number of rows.
func (r Result) Len() int {
	return len(r.Index)
}

// Column returns the named column, if present.
func (r Result) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Driver fans partitions out to a fixed set of workers.
type Driver struct {
	workers int
	pool    *Pool
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewDriver creates a driver. workers <= 0 uses GOMAXPROCS.
func NewDriver(workers int, log *zap.Logger) *Driver {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Driver{
		workers: workers,
		pool:    NewPool(),
		logger:  logger.OrNop(log),
	}
}

// SetMetrics attaches a metrics registry.
func (d *Driver) SetMetrics(reg *metrics.Registry) {
	d.metrics = reg
}

// Run computes every spec over every partition. Results keep the order of
// partitions. When ctx is canceled before every partition has been handed to
// a worker, no new partitions are started and ctx.Err() is returned.
func (d *Driver) Run(ctx context.Context, specs []indicator.Spec, partitions []core.Partition) ([]Result, error) {
	if len(specs) == 0 {
		return nil, core.WrapError(core.ErrInvalidConfiguration, fmt.Errorf("no indicators requested"))
	}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	for _, p := range partitions {
		if err := checkOrder(p); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	log := d.logger.With(zap.String("run_id", runID))
	start := time.Now()
	log.Debug("run started",
		zap.Int("partitions", len(partitions)),
		zap.Int("indicators", len(specs)),
		zap.Int("workers", d.workers))

	results, err := d.run(ctx, log, specs, partitions)

	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		if ctx.Err() != nil {
			status = "canceled"
		}
		log.Warn("run aborted", zap.Error(err), zap.Duration("elapsed", elapsed))
	} else {
		log.Info("run finished",
			zap.Int("partitions", len(partitions)),
			zap.Duration("elapsed", elapsed))
	}
	if d.metrics != nil {
		d.metrics.RecordRun(status, elapsed.Seconds())
		idle := make(map[string]int, len(specs))
		for _, s := range specs {
			idle[s.Name()] = d.pool.Idle(s)
		}
		d.metrics.RecordPool(d.pool.Created(), idle)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Driver) run(ctx context.Context, log *zap.Logger, specs []indicator.Spec, partitions []core.Partition) ([]Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(partitions))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := min(d.workers, len(partitions))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := d.process(partitions[i], specs)
				if err != nil {
					fail(fmt.Errorf("partition %q: %w", partitions[i].Key, err))
					continue
				}
				results[i] = res
				log.Debug("partition done",
					zap.String("key", res.Key),
					zap.Int("rows", res.Len()))
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range partitions {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if dispatched < len(partitions) {
		return nil, ctx.Err()
	}
	return results, nil
}

// process steps one engine per spec through the partition, in row order.
func (d *Driver) process(p core.Partition, specs []indicator.Spec) (Result, error) {
	if d.metrics != nil {
		d.metrics.WorkerBusy()
		defer d.metrics.WorkerIdle()
	}

	n := p.Len()
	res := Result{
		Key:     p.Key,
		Index:   make([]int64, n),
		Time:    make([]time.Time, n),
		Columns: make([]Column, 0, len(specs)),
	}
	nulls := 0
	for i, o := range p.Observations {
		res.Index[i] = o.Index
		res.Time[i] = o.Time
		if !o.Value.Valid {
			nulls++
		}
	}

	for _, spec := range specs {
		e, err := d.pool.Get(spec)
		if err != nil {
			return Result{}, err
		}
		out := make([]core.Value, n)
		undefined := 0
		for i, o := range p.Observations {
			out[i] = e.Step(o.Value)
			if !out[i].Valid {
				undefined++
			}
		}
		d.pool.Put(e)

		res.Columns = append(res.Columns, Column{Name: spec.Name(), Values: out})
		if d.metrics != nil {
			d.metrics.RecordPartition(string(spec.Kind), n, nulls, undefined)
		}
	}
	return res, nil
}

// checkOrder rejects partitions whose row indices do not strictly increase.
func checkOrder(p core.Partition) error {
	for i := 1; i < len(p.Observations); i++ {
		prev, cur := p.Observations[i-1].Index, p.Observations[i].Index
		if cur <= prev {
			return core.WrapError(core.ErrOutOfOrder,
				fmt.Errorf("partition %q: row %d has index %d after %d", p.Key, i, cur, prev))
		}
	}
	return nil
}
