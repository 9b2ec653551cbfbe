package indicator

import (
	"math"

	"github.com/newthinker/finwindow/internal/core"
)

// RSI calculates the Relative Strength Index using Wilder's smoothing of
// average gain and average loss.
//
// Row 0 has no delta, so the first N deltas need N+1 rows; rows 0..N-1 are
// null and row N carries the first value. A null row emits null and leaves
// state untouched; the next delta is taken against the last non-null value.
type RSI struct {
	period  int
	prev    float64
	hasPrev bool
	gain    wilder
	loss    wilder
}

// NewRSI creates a new RSI with the given period (typically 14).
func NewRSI(period int) (*RSI, error) {
	if err := RSISpec(period).Validate(); err != nil {
		return nil, err
	}
	return newRSI(period), nil
}

func newRSI(period int) *RSI {
	return &RSI{
		period: period,
		gain:   wilder{period: period},
		loss:   wilder{period: period},
	}
}

func (r *RSI) Name() string { return r.Spec().Name() }
func (r *RSI) Spec() Spec   { return RSISpec(r.period) }
func (r *RSI) sealed()      {}

func (r *RSI) Phase() Phase {
	if r.gain.ready() {
		return PhaseReady
	}
	return PhaseWarmup
}

func (r *RSI) Step(v core.Value) core.Value {
	x, ok := v.Get()
	if !ok {
		return core.Null()
	}
	if !r.hasPrev {
		r.prev = x
		r.hasPrev = true
		return core.Null()
	}

	delta := x - r.prev
	r.prev = x

	avgGain, ready := r.gain.add(math.Max(delta, 0))
	avgLoss, _ := r.loss.add(math.Max(-delta, 0))
	if !ready {
		return core.Null()
	}
	return core.Some(rsiFrom(avgGain, avgLoss))
}

// rsiFrom maps the smoothed averages to [0, 100]. A flat series (both
// zero) is reported as 50.
func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100
		}
		if avgGain == 0 {
			return 50
		}
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Reset clears the RSI state for reuse.
func (r *RSI) Reset() {
	r.prev = 0
	r.hasPrev = false
	r.gain.reset()
	r.loss.reset()
}
