package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/newthinker/finwindow/internal/core"
)

// in builds an input column; nil entries are null.
func in(xs ...any) []core.Value {
	out := make([]core.Value, len(xs))
	for i, x := range xs {
		switch v := x.(type) {
		case nil:
			out[i] = core.Null()
		case int:
			out[i] = core.Some(float64(v))
		case float64:
			out[i] = core.Some(v)
		default:
			panic("unsupported test value")
		}
	}
	return out
}

func randomWalk(seed int64, n int) []core.Value {
	rng := rand.New(rand.NewSource(seed))
	out := make([]core.Value, n)
	price := 100.0
	for i := range out {
		price += rng.Float64()*4 - 2
		out[i] = core.Some(price)
	}
	return out
}

func assertSeries(t *testing.T, label string, got, want []core.Value, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d outputs, want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i].Valid != want[i].Valid {
			t.Errorf("%s[%d]: got %v, want %v", label, i, got[i], want[i])
			continue
		}
		if want[i].Valid && math.Abs(got[i].Float-want[i].Float) > tol {
			t.Errorf("%s[%d]: got %.6f, want %.6f", label, i, got[i].Float, want[i].Float)
		}
	}
}
