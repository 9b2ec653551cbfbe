package indicator

import (
	"testing"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allSpecs = []Spec{SMASpec(5), EMASpec(5), RSISpec(5), MACDSpec(3, 7)}

func TestApply_LengthPreserved(t *testing.T) {
	input := randomWalk(1, 33)
	input[4] = core.Null()
	input[20] = core.Null()

	for _, s := range allSpecs {
		got, err := Compute(s, input)
		require.NoError(t, err)
		assert.Len(t, got, len(input), s.String())
	}
}

func TestApply_Empty(t *testing.T) {
	for _, s := range allSpecs {
		got, err := Compute(s, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	input := randomWalk(2, 100)

	for _, s := range allSpecs {
		a, err := Compute(s, input)
		require.NoError(t, err)
		b, err := Compute(s, input)
		require.NoError(t, err)
		assert.Equal(t, a, b, s.String())
	}
}

func TestReset_MatchesFreshEngine(t *testing.T) {
	first := randomWalk(3, 60)
	second := randomWalk(4, 60)

	for _, s := range allSpecs {
		reused := mustNew(t, s)
		Apply(reused, first)
		reused.Reset()

		want, err := Compute(s, second)
		require.NoError(t, err)
		assert.Equal(t, want, Apply(reused, second), s.String())
	}
}

func TestApply_Causal(t *testing.T) {
	input := randomWalk(5, 50)

	for _, s := range allSpecs {
		full, _ := Compute(s, input)
		for cut := 1; cut < len(input); cut += 7 {
			prefix, _ := Compute(s, input[:cut])
			assert.Equal(t, full[:cut], prefix, "%s cut=%d", s, cut)
		}
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "warmup", PhaseWarmup.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "unknown", Phase(9).String())
}

func TestCompute_InvalidSpec(t *testing.T) {
	_, err := Compute(RSISpec(0), randomWalk(1, 3))
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}
