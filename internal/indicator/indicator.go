// Package indicator implements incremental technical indicators over an
// ordered sequence of nullable observations.
//
// Every indicator is a small state machine: Step consumes one observation
// and returns the output for that row, or null while the indicator is still
// warming up. State is O(1) in the input length (SMA keeps a bounded ring of
// its last N values) and a full pass is O(n). An Engine belongs to exactly
// one partition and is driven by one goroutine; it is not safe for
// concurrent Step calls.
package indicator

import "github.com/newthinker/finwindow/internal/core"

// Phase is the lifecycle stage of an engine.
type Phase int

const (
	// PhaseWarmup means the engine has not seen enough history to emit a value.
	PhaseWarmup Phase = iota
	// PhaseReady means the recurrence is in steady state.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseReady:
		return "ready"
	}
	return "unknown"
}

// Engine is the shared contract of all indicators.
//
// The set of implementations is closed: SMA, EMA, RSI and MACD. Use New to
// build one from a Spec.
type Engine interface {
	// Name returns the column name, e.g. "sma_20" or "macd_12_26".
	Name() string

	// Spec returns the configuration the engine was built with.
	Spec() Spec

	// Step feeds the next observation in row order and returns the output
	// for that row. A null input never panics; it is handled per indicator.
	Step(v core.Value) core.Value

	// Phase reports whether the engine is still warming up.
	Phase() Phase

	// Reset clears all state so the engine can serve a new partition.
	Reset()

	sealed()
}

// Apply runs values through e in order and returns the index-aligned
// outputs. The caller is responsible for passing a fresh or reset engine.
func Apply(e Engine, values []core.Value) []core.Value {
	out := make([]core.Value, len(values))
	for i, v := range values {
		out[i] = e.Step(v)
	}
	return out
}

// Compute builds a fresh engine for spec and applies it to values.
func Compute(spec Spec, values []core.Value) ([]core.Value, error) {
	e, err := New(spec)
	if err != nil {
		return nil, err
	}
	return Apply(e, values), nil
}
