package livefeed

import "math"

// NormalizeProbability maps a raw win-expectancy input onto [0,1]: values
// already in [0,1] pass through, values in (1,100] are read as percentages,
// anything else numeric is clamped. Results are rounded to 4 decimals so
// deltas compare stably.
func NormalizeProbability(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}

	p := *v
	if p > 1 && p <= 100 {
		p /= 100
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	p = round4(p)
	return &p
}

// ApplyDeltas fills in each frame's win-expectancy delta as the signed
// change from the most recent frame that actually carried a home
// probability. fallbackPrevHome seeds the baseline from frames filtered out
// as already-seen; frames with no probability leave the baseline untouched.
func ApplyDeltas(frames []*LiveFrame, fallbackPrevHome *float64) {
	prev := fallbackPrevHome

	for _, frame := range frames {
		home := frame.WinExpectancy.Home
		if home == nil {
			continue
		}
		if prev != nil {
			delta := round4(*home - *prev)
			frame.WinExpectancy.Delta = &delta
		}
		prev = home
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
