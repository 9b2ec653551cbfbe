package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newthinker/finwindow/internal/core"
)

// Kind identifies one of the supported indicators.
type Kind string

const (
	KindSMA  Kind = "sma"
	KindEMA  Kind = "ema"
	KindRSI  Kind = "rsi"
	KindMACD Kind = "macd"
)

// Conventional MACD periods.
const (
	DefaultMACDFast = 12
	DefaultMACDSlow = 26
)

// Kinds lists all supported indicator kinds.
func Kinds() []Kind {
	return []Kind{KindSMA, KindEMA, KindRSI, KindMACD}
}

// Spec is the immutable window configuration of an engine.
//
// Period applies to SMA, EMA and RSI. Fast and Slow apply to MACD; zero
// values select the 12/26 convention.
type Spec struct {
	Kind   Kind
	Period int
	Fast   int
	Slow   int
}

// SMASpec, EMASpec and RSISpec are shorthands for single-period specs.
func SMASpec(period int) Spec { return Spec{Kind: KindSMA, Period: period} }
func EMASpec(period int) Spec { return Spec{Kind: KindEMA, Period: period} }
func RSISpec(period int) Spec { return Spec{Kind: KindRSI, Period: period} }

// MACDSpec returns the MACD spec with the given periods.
func MACDSpec(fast, slow int) Spec { return Spec{Kind: KindMACD, Fast: fast, Slow: slow} }

// normalize fills MACD defaults so that equal configurations compare equal.
func (s Spec) normalize() Spec {
	if s.Kind == KindMACD {
		if s.Fast == 0 {
			s.Fast = DefaultMACDFast
		}
		if s.Slow == 0 {
			s.Slow = DefaultMACDSlow
		}
		s.Period = 0
	}
	return s
}

// Validate reports an InvalidConfiguration error for unusable specs.
func (s Spec) Validate() error {
	s = s.normalize()
	switch s.Kind {
	case KindSMA, KindEMA, KindRSI:
		if s.Period <= 0 {
			return invalidf("%s period must be positive, got %d", s.Kind, s.Period)
		}
	case KindMACD:
		if s.Fast <= 0 || s.Slow <= 0 {
			return invalidf("macd periods must be positive, got fast=%d slow=%d", s.Fast, s.Slow)
		}
		if s.Fast >= s.Slow {
			return invalidf("macd fast period must be less than slow period, got fast=%d slow=%d", s.Fast, s.Slow)
		}
	default:
		return invalidf("unknown indicator kind %q", s.Kind)
	}
	return nil
}

// Name returns the output column name, e.g. "rsi_14".
func (s Spec) Name() string {
	s = s.normalize()
	if s.Kind == KindMACD {
		return fmt.Sprintf("macd_%d_%d", s.Fast, s.Slow)
	}
	return fmt.Sprintf("%s_%d", s.Kind, s.Period)
}

// String returns the call form accepted by ParseSpec, e.g. "rsi(14)".
func (s Spec) String() string {
	s = s.normalize()
	if s.Kind == KindMACD {
		return fmt.Sprintf("macd(%d,%d)", s.Fast, s.Slow)
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.Period)
}

// MarshalText encodes the spec in its call form.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the call form.
func (s *Spec) UnmarshalText(text []byte) error {
	parsed, err := ParseSpec(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSpec parses "sma(20)", "ema(9)", "rsi(14)", "macd" or "macd(5,35)".
// Names are case-insensitive and surrounding whitespace is ignored.
func ParseSpec(text string) (Spec, error) {
	raw := strings.TrimSpace(text)
	name, args := raw, ""
	if open := strings.IndexByte(raw, '('); open >= 0 {
		if !strings.HasSuffix(raw, ")") {
			return Spec{}, invalidf("malformed indicator %q: missing closing parenthesis", text)
		}
		name = strings.TrimSpace(raw[:open])
		args = raw[open+1 : len(raw)-1]
	}

	var params []int
	if strings.TrimSpace(args) != "" {
		for _, part := range strings.Split(args, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return Spec{}, invalidf("malformed indicator %q: %v", text, err)
			}
			params = append(params, n)
		}
	}

	kind := Kind(strings.ToLower(name))
	var spec Spec
	switch kind {
	case KindSMA, KindEMA, KindRSI:
		if len(params) != 1 {
			return Spec{}, invalidf("%s takes exactly one period argument, got %d", kind, len(params))
		}
		spec = Spec{Kind: kind, Period: params[0]}
	case KindMACD:
		switch len(params) {
		case 0:
			spec = MACDSpec(DefaultMACDFast, DefaultMACDSlow)
		case 2:
			spec = MACDSpec(params[0], params[1])
		default:
			return Spec{}, invalidf("macd takes zero or two period arguments, got %d", len(params))
		}
	default:
		return Spec{}, invalidf("unknown indicator kind %q", name)
	}

	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec.normalize(), nil
}

// ParseSpecs parses a list of call forms, failing on the first bad entry.
func ParseSpecs(texts []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(texts))
	for _, t := range texts {
		s, err := ParseSpec(t)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// New resolves spec to its engine.
func New(spec Spec) (Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.normalize()
	switch spec.Kind {
	case KindSMA:
		return newSMA(spec.Period), nil
	case KindEMA:
		return newEMA(spec.Period), nil
	case KindRSI:
		return newRSI(spec.Period), nil
	default:
		return newMACD(spec.Fast, spec.Slow), nil
	}
}

func invalidf(format string, args ...any) error {
	return core.WrapError(core.ErrInvalidConfiguration, fmt.Errorf(format, args...))
}
