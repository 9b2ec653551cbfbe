package indicator

import "github.com/newthinker/finwindow/internal/core"

// EMA calculates Exponential Moving Average with alpha = 2/(N+1).
//
// The first output is the plain mean of the first N non-null observations;
// earlier rows are null. Nulls during warm-up are skipped. After seeding, a
// null row carries the previous EMA forward unchanged.
type EMA struct {
	period  int
	alpha   float64
	seedSum float64
	seeded  int // non-null values folded into seedSum
	current float64
	ready   bool
}

// NewEMA creates a new EMA with the given period.
func NewEMA(period int) (*EMA, error) {
	if err := EMASpec(period).Validate(); err != nil {
		return nil, err
	}
	return newEMA(period), nil
}

func newEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return e.Spec().Name() }
func (e *EMA) Spec() Spec   { return EMASpec(e.period) }
func (e *EMA) sealed()      {}

func (e *EMA) Phase() Phase {
	if e.ready {
		return PhaseReady
	}
	return PhaseWarmup
}

func (e *EMA) Step(v core.Value) core.Value {
	x, ok := v.Get()
	if !ok {
		if e.ready {
			return core.Some(e.current)
		}
		return core.Null()
	}

	if !e.ready {
		e.seedSum += x
		e.seeded++
		if e.seeded < e.period {
			return core.Null()
		}
		e.current = e.seedSum / float64(e.period)
		e.ready = true
		return core.Some(e.current)
	}

	// EMA = alpha*x + (1-alpha)*EMA_prev
	e.current = e.alpha*x + (1-e.alpha)*e.current
	return core.Some(e.current)
}

// Reset clears the EMA state for reuse.
func (e *EMA) Reset() {
	e.seedSum = 0
	e.seeded = 0
	e.current = 0
	e.ready = false
}
