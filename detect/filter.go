package detect

// LowPassFilter smooths a stream of raw distance samples with a first
// order exponential filter:
//
//	smoothed = alpha*raw + (1-alpha)*smoothed_prev
//
// A small alpha means heavy smoothing and more lag, alpha == 1 passes
// the raw value through unchanged. The HC-SR04 produces single-sample
// dropouts and jitter of several centimeters; without smoothing the
// threshold comparison in the presence detector would chatter.
//
// The first sample seeds the filter state directly so there is no
// cold-start transient. The filter is fully deterministic for a given
// input sequence.
type LowPassFilter struct {
	alpha    float64
	smoothed float64
	seeded   bool
}

// NewLowPassFilter creates a filter with the given smoothing constant.
// alpha must be in (0, 1]; values outside are clamped.
func NewLowPassFilter(alpha float64) *LowPassFilter {
	return &LowPassFilter{alpha: clampAlpha(alpha)}
}

// Update consumes one raw sample and returns the new smoothed estimate.
func (f *LowPassFilter) Update(raw float64) float64 {
	if !f.seeded {
		f.smoothed = raw
		f.seeded = true
		return f.smoothed
	}
	f.smoothed = f.alpha*raw + (1-f.alpha)*f.smoothed
	return f.smoothed
}

// Value returns the current smoothed estimate. It is zero before the
// first call to Update.
func (f *LowPassFilter) Value() float64 {
	return f.smoothed
}

// SetAlpha changes the smoothing constant. The current estimate is
// kept so retuning at runtime does not cause a jump in the output.
func (f *LowPassFilter) SetAlpha(alpha float64) {
	f.alpha = clampAlpha(alpha)
}

// Reset discards the filter state. The next Update seeds it again.
func (f *LowPassFilter) Reset() {
	f.smoothed = 0
	f.seeded = false
}

func clampAlpha(alpha float64) float64 {
	if alpha <= 0 {
		return 0.01
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}
