package indicator

import (
	"encoding/json"
	"testing"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		input string
		want  Spec
	}{
		{"sma(20)", SMASpec(20)},
		{"  EMA( 9 ) ", EMASpec(9)},
		{"rsi(14)", RSISpec(14)},
		{"macd", MACDSpec(12, 26)},
		{"macd()", MACDSpec(12, 26)},
		{"MACD(5, 35)", MACDSpec(5, 35)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSpec(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpec_Errors(t *testing.T) {
	inputs := []string{
		"",
		"wma(10)",
		"sma",
		"sma(0)",
		"ema(-5)",
		"rsi(14,2)",
		"sma(abc)",
		"sma(10",
		"macd(26,12)",
		"macd(12)",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSpec(input)
			assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
		})
	}
}

func TestSpec_NameAndString(t *testing.T) {
	assert.Equal(t, "sma_20", SMASpec(20).Name())
	assert.Equal(t, "rsi(14)", RSISpec(14).String())
	assert.Equal(t, "macd_12_26", Spec{Kind: KindMACD}.Name())
	assert.Equal(t, "macd(12,26)", Spec{Kind: KindMACD}.String())
}

func TestSpec_StringRoundTrip(t *testing.T) {
	for _, s := range []Spec{SMASpec(3), EMASpec(50), RSISpec(7), MACDSpec(8, 17)} {
		parsed, err := ParseSpec(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestSpec_JSON(t *testing.T) {
	var specs []Spec
	require.NoError(t, json.Unmarshal([]byte(`["sma(3)", "macd"]`), &specs))
	assert.Equal(t, []Spec{SMASpec(3), MACDSpec(12, 26)}, specs)

	data, err := json.Marshal(specs)
	require.NoError(t, err)
	assert.JSONEq(t, `["sma(3)", "macd(12,26)"]`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`["sma(0)"]`), &specs))
}

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs([]string{"sma(5)", "rsi(14)"})
	require.NoError(t, err)
	assert.Len(t, specs, 2)

	_, err = ParseSpecs([]string{"sma(5)", "bogus"})
	assert.Error(t, err)
}

func TestNew_ResolvesKind(t *testing.T) {
	tests := []struct {
		spec Spec
		name string
	}{
		{SMASpec(4), "sma_4"},
		{EMASpec(4), "ema_4"},
		{RSISpec(4), "rsi_4"},
		{Spec{Kind: KindMACD}, "macd_12_26"},
	}

	for _, tt := range tests {
		e, err := New(tt.spec)
		require.NoError(t, err)
		assert.Equal(t, tt.name, e.Name())
		assert.Equal(t, PhaseWarmup, e.Phase())
	}

	_, ok := mustNew(t, SMASpec(4)).(*SMA)
	assert.True(t, ok)
	_, ok = mustNew(t, Spec{Kind: KindMACD}).(*MACD)
	assert.True(t, ok)
}

func TestNew_Invalid(t *testing.T) {
	e, err := New(Spec{Kind: "vwap", Period: 10})
	assert.Nil(t, e)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	e, err = New(SMASpec(0))
	assert.Nil(t, e)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func mustNew(t *testing.T, s Spec) Engine {
	t.Helper()
	e, err := New(s)
	require.NoError(t, err)
	return e
}
