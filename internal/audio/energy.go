// Package audio holds signal helpers shared by recording capture and
// reply-playback visualization.
package audio

import "math"

// analyzerBins is the number of frequency bins sampled per snapshot,
// matching a 128-point transform over the most recent samples.
const analyzerBins = 64

// Analyzer computes a frequency-domain energy measure over PCM frames.
// One analyzer is shared between recording and playback visualization;
// ownership transfers with the voice pipeline state.
type Analyzer struct {
	window []float64
}

// NewAnalyzer creates an analyzer with an empty sample window
func NewAnalyzer() *Analyzer {
	return &Analyzer{window: make([]float64, 0, analyzerBins*2)}
}

// Energy folds a PCM frame into the window and returns the mean magnitude
// of its frequency snapshot, normalized to 0..1.
func (a *Analyzer) Energy(frame []int16) float64 {
	if len(frame) == 0 {
		return a.snapshot()
	}

	// Keep only the most recent transform-width samples.
	start := 0
	if len(frame) > analyzerBins*2 {
		start = len(frame) - analyzerBins*2
	}
	a.window = a.window[:0]
	for _, s := range frame[start:] {
		a.window = append(a.window, float64(s)/math.MaxInt16)
	}
	return a.snapshot()
}

// Reset clears the sample window
func (a *Analyzer) Reset() {
	a.window = a.window[:0]
}

// snapshot computes the mean magnitude across frequency bins via a
// direct real DFT. The window is at most 128 samples, so the quadratic
// cost is negligible next to frame pacing.
func (a *Analyzer) snapshot() float64 {
	n := len(a.window)
	if n == 0 {
		return 0
	}

	var sum float64
	bins := analyzerBins
	if bins > n {
		bins = n
	}
	for k := 0; k < bins; k++ {
		var re, im float64
		for t, s := range a.window {
			angle := 2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += s * math.Cos(angle)
			im -= s * math.Sin(angle)
		}
		sum += math.Sqrt(re*re+im*im) / float64(n)
	}
	return sum / float64(bins)
}
