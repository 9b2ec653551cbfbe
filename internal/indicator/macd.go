package indicator

import "github.com/newthinker/finwindow/internal/core"

// MACD is the difference between a fast and a slow EMA fed in lockstep.
// Output is null until both have seeded, i.e. until the slow EMA finishes
// its warm-up.
type MACD struct {
	fast *EMA
	slow *EMA
}

// NewMACD creates the conventional MACD(12,26).
func NewMACD() *MACD {
	return newMACD(DefaultMACDFast, DefaultMACDSlow)
}

// NewMACDWith creates a MACD with custom periods. Both must be positive and
// fast must be less than slow.
func NewMACDWith(fast, slow int) (*MACD, error) {
	if fast <= 0 || slow <= 0 {
		return nil, invalidf("macd periods must be positive, got fast=%d slow=%d", fast, slow)
	}
	if err := MACDSpec(fast, slow).Validate(); err != nil {
		return nil, err
	}
	return newMACD(fast, slow), nil
}

func newMACD(fast, slow int) *MACD {
	return &MACD{
		fast: newEMA(fast),
		slow: newEMA(slow),
	}
}

func (m *MACD) Name() string { return m.Spec().Name() }
func (m *MACD) Spec() Spec   { return MACDSpec(m.fast.period, m.slow.period) }
func (m *MACD) sealed()      {}

func (m *MACD) Phase() Phase {
	if m.fast.Phase() == PhaseReady && m.slow.Phase() == PhaseReady {
		return PhaseReady
	}
	return PhaseWarmup
}

func (m *MACD) Step(v core.Value) core.Value {
	f := m.fast.Step(v)
	s := m.slow.Step(v)
	if !f.Valid || !s.Valid {
		return core.Null()
	}
	return core.Some(f.Float - s.Float)
}

// Reset clears both EMAs.
func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
}
