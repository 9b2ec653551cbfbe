package indicator

import (
	"errors"
	"testing"

	"github.com/newthinker/finwindow/internal/core"
)

func TestEMA_Correctness_Period3(t *testing.T) {
	// multiplier = 2/(3+1) = 0.5
	// seed = (100+102+104)/3 = 102
	// 103*0.5 + 102*0.5 = 102.5
	// 105*0.5 + 102.5*0.5 = 103.75
	ema, err := NewEMA(3)
	if err != nil {
		t.Fatal(err)
	}
	got := Apply(ema, in(100, 102, 104, 103, 105))

	assertSeries(t, "ema(3)", got, in(nil, nil, 102.0, 102.5, 103.75), 1e-12)
}

func TestEMA_Correctness_Period5(t *testing.T) {
	mult := 2.0 / 6.0
	seed := (44.0 + 44.25 + 44.50 + 43.75 + 44.50) / 5.0
	next := 44.25*mult + seed*(1-mult)
	last := 44.00*mult + next*(1-mult)

	ema, _ := NewEMA(5)
	got := Apply(ema, in(44.0, 44.25, 44.50, 43.75, 44.50, 44.25, 44.00))

	assertSeries(t, "ema(5)", got, in(nil, nil, nil, nil, seed, next, last), 1e-9)
}

func TestEMA_SeedSkipsNulls(t *testing.T) {
	ema, _ := NewEMA(3)
	got := Apply(ema, in(nil, 3, nil, 6, 9, nil))

	// Seed is the mean of the first three non-null values: (3+6+9)/3 = 6.
	// The trailing null carries 6 forward.
	assertSeries(t, "ema(3)", got, in(nil, nil, nil, nil, 6.0, 6.0), 1e-12)
}

func TestEMA_NullCarriesForward(t *testing.T) {
	ema, _ := NewEMA(1)
	got := Apply(ema, in(5, nil, nil, 8, nil))

	assertSeries(t, "ema(1)", got, in(5.0, 5.0, 5.0, 8.0, 8.0), 0)
	if ema.Phase() != PhaseReady {
		t.Error("nulls must not return a seeded EMA to warm-up")
	}
}

func TestEMA_ConstantStream(t *testing.T) {
	ema, _ := NewEMA(3)
	input := make([]core.Value, 50)
	for i := range input {
		input[i] = core.Some(8)
	}
	got := Apply(ema, input)

	for i := 2; i < len(got); i++ {
		if got[i] != core.Some(8) {
			t.Fatalf("output %d = %v, want exactly 8", i, got[i])
		}
	}
}

func TestEMA_ConstantStreamConverges(t *testing.T) {
	for _, period := range []int{2, 5, 9, 20} {
		ema, _ := NewEMA(period)
		var last core.Value
		for i := 0; i < 500; i++ {
			last = ema.Step(core.Some(42.5))
		}
		assertSeries(t, "converged", []core.Value{last}, in(42.5), 1e-12)
	}
}

func TestEMA_Reset(t *testing.T) {
	ema, _ := NewEMA(2)
	Apply(ema, in(50, 60, 70))
	ema.Reset()

	if ema.Phase() != PhaseWarmup {
		t.Fatal("reset EMA should be warming up")
	}
	got := Apply(ema, in(1, 3, 5))
	// seed 2, then 5*(2/3) + 2*(1/3) = 4
	assertSeries(t, "after reset", got, in(nil, 2.0, 4.0), 1e-12)
}

func TestEMA_InvalidPeriod(t *testing.T) {
	_, err := NewEMA(0)
	if !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Errorf("expected InvalidConfiguration, got %v", err)
	}
}
