package indicator

// wilder is Wilder's smoothing (alpha = 1/N) seeded with the plain mean of
// its first N samples.
type wilder struct {
	period int
	count  int
	sum    float64
	avg    float64
}

// add folds x in and returns the smoothed average once seeded.
func (w *wilder) add(x float64) (float64, bool) {
	p := float64(w.period)
	if w.count < w.period {
		w.count++
		w.sum += x
		if w.count < w.period {
			return 0, false
		}
		w.avg = w.sum / p
		return w.avg, true
	}
	w.avg = (w.avg*(p-1) + x) / p
	return w.avg, true
}

func (w *wilder) ready() bool { return w.count >= w.period }

func (w *wilder) reset() {
	w.count = 0
	w.sum = 0
	w.avg = 0
}
