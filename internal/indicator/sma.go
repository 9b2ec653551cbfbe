package indicator

import (
	"math"

	"github.com/newthinker/finwindow/internal/core"
)

// SMA calculates Simple Moving Average over a rolling window of the last N
// non-null values, using a preallocated circular buffer and a running sum.
//
// A null row emits null and leaves the buffer and sum untouched. A window
// that spans a gap is undefined: output resumes once N values have been
// seen since the last null.
//
// Non-finite inputs are not guarded. They contaminate the sum, and so every
// output, until they are evicted from the buffer.
type SMA struct {
	period int
	buf    []float64 // circular buffer of the last period values
	idx    int       // next write position
	count  int       // values held, at most period
	run    int       // values since the last gap, at most period
	sum    float64
}

// NewSMA creates a new SMA with the given period.
func NewSMA(period int) (*SMA, error) {
	if err := SMASpec(period).Validate(); err != nil {
		return nil, err
	}
	return newSMA(period), nil
}

func newSMA(period int) *SMA {
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *SMA) Name() string { return s.Spec().Name() }
func (s *SMA) Spec() Spec   { return SMASpec(s.period) }
func (s *SMA) sealed()      {}

func (s *SMA) Phase() Phase {
	if s.run >= s.period {
		return PhaseReady
	}
	return PhaseWarmup
}

func (s *SMA) Step(v core.Value) core.Value {
	x, ok := v.Get()
	if !ok {
		s.run = 0
		return core.Null()
	}

	evicted, recompute := 0.0, false
	if s.count == s.period {
		evicted = s.buf[s.idx]
		if isNonFinite(evicted) {
			recompute = true
		} else {
			s.sum -= evicted
		}
	} else {
		s.count++
	}

	s.buf[s.idx] = x
	s.idx = (s.idx + 1) % s.period

	if recompute {
		// Subtracting a NaN or Inf cannot restore the sum; rebuild it.
		s.sum = 0
		for i := 0; i < s.count; i++ {
			s.sum += s.buf[i]
		}
	} else {
		s.sum += x
	}

	if s.run < s.period {
		s.run++
	}
	if s.run < s.period {
		return core.Null()
	}
	return core.Some(s.sum / float64(s.period))
}

// Reset clears the SMA state for reuse.
func (s *SMA) Reset() {
	s.idx = 0
	s.count = 0
	s.run = 0
	s.sum = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}

func isNonFinite(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
