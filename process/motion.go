package process

import (
	"context"
	"log/slog"
	"math"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

// MotionFeatures derives instantaneous acceleration and the centered
// rolling standard deviation of speed.
//
// Acceleration guards the degenerate deltas that out-of-order or
// duplicate timestamps produce: a non-positive delta, NaN or ±Inf all
// collapse to zero. The rolling window is sized in samples from the
// ride's observed mean interval; edge samples without a full window are
// filled from the nearest computed value, backward then forward, and a
// ride too short to ever fill a window gets zeros.
type MotionFeatures struct{}

func (MotionFeatures) Name() string { return "motion-features" }

func (MotionFeatures) Process(_ context.Context, _ *slog.Logger, r *ride.Ride, cfg config.Config) error {
	samples := r.Samples
	if len(samples) == 0 {
		return nil
	}

	for i := range samples {
		if i == 0 {
			samples[i].AccelerationMPS2 = 0
			continue
		}
		delta := samples[i].TimeDeltaS
		accel := 0.0
		if delta > 0 {
			accel = (samples[i].SpeedMPS - samples[i-1].SpeedMPS) / delta
		}
		if !isFinite(accel) {
			accel = 0
		}
		samples[i].AccelerationMPS2 = accel
	}

	window := windowSamples(cfg.RollingWindowSpeedStdSeconds, r.MeanTimeDelta())
	stds := rollingStdCentered(samples, window)
	for i := range samples {
		samples[i].SpeedRollingStdKMH = stds[i]
	}
	return nil
}

// windowSamples converts a second-denominated window into a sample
// count using the observed mean interval, never below one sample.
func windowSamples(seconds, meanDelta float64) int {
	if meanDelta <= 0 {
		meanDelta = 1.0
	}
	w := int(math.Round(seconds / meanDelta))
	if w < 1 {
		w = 1
	}
	return w
}

// rollingStdCentered computes the sample standard deviation of SpeedKMH
// over a centered window of exactly `window` samples. Positions without
// a full window take the nearest valid value, backward then forward;
// all-invalid rides yield zeros. A window of one sample has no defined
// deviation, so it also yields zeros.
func rollingStdCentered(samples []ride.Sample, window int) []float64 {
	n := len(samples)
	out := make([]float64, n)
	valid := make([]bool, n)

	left := (window - 1) / 2
	right := window / 2

	if window >= 2 {
		for i := range samples {
			lo, hi := i-left, i+right
			if lo < 0 || hi >= n {
				continue
			}
			out[i] = sampleStd(samples, lo, hi)
			valid[i] = true
		}
	}

	// Backward fill, then forward fill, mirroring the nearest-valid
	// edge policy.
	for i := n - 2; i >= 0; i-- {
		if !valid[i] && valid[i+1] {
			out[i] = out[i+1]
			valid[i] = true
		}
	}
	for i := 1; i < n; i++ {
		if !valid[i] && valid[i-1] {
			out[i] = out[i-1]
			valid[i] = true
		}
	}
	return out
}

// sampleStd is the ddof=1 standard deviation of SpeedKMH over the
// inclusive index range [lo, hi].
func sampleStd(samples []ride.Sample, lo, hi int) float64 {
	count := hi - lo + 1
	if count < 2 {
		return 0
	}
	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += samples[i].SpeedKMH
	}
	mean := sum / float64(count)

	sq := 0.0
	for i := lo; i <= hi; i++ {
		d := samples[i].SpeedKMH - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(count-1))
	if !isFinite(std) {
		return 0
	}
	return std
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
