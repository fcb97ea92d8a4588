package process

import (
	"context"
	"log/slog"
	"math"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

// Fallback variability baseline for an empty ride.
const defaultStdBaseline = 0.5

// CruiseClassifier narrows the cruising flag left by the stop detector.
// Three independent masks each only ever clear the flag, so a sample
// classified cruising here was cruising at every earlier stage:
//
//  1. |acceleration| above the acceleration threshold
//  2. rolling speed deviation above an adaptive threshold derived from
//     the currently-cruising subset's mean deviation
//  3. speed under the minimum cruising floor
//
// The adaptive baseline is computed once, before the acceleration and
// variability masks are applied.
type CruiseClassifier struct{}

func (CruiseClassifier) Name() string { return "cruise-classifier" }

func (CruiseClassifier) Process(_ context.Context, logger *slog.Logger, r *ride.Ride, cfg config.Config) error {
	samples := r.Samples

	baseline := cruisingStdBaseline(samples)

	// A near-zero baseline would reject everything once scaled, so the
	// factor alone becomes the threshold.
	stdThreshold := cfg.SpeedStdDevThresholdFactor
	if baseline > 0.01 {
		stdThreshold = baseline * cfg.SpeedStdDevThresholdFactor
	}

	for i := range samples {
		s := &samples[i]
		if math.Abs(s.AccelerationMPS2) > cfg.AccelerationThresholdMPS2 {
			s.IsCruising = false
		}
		if s.SpeedRollingStdKMH > stdThreshold {
			s.IsCruising = false
		}
		if s.SpeedKMH < cfg.MinCruisingSpeedKMH {
			s.IsCruising = false
		}
	}

	logger.Debug("cruise classification applied",
		"std_baseline_kmh", baseline,
		"std_threshold_kmh", stdThreshold,
		"acceleration_threshold_mps2", cfg.AccelerationThresholdMPS2,
		"min_cruising_speed_kmh", cfg.MinCruisingSpeedKMH,
	)
	return nil
}

// cruisingStdBaseline is the mean rolling deviation over the samples
// still marked cruising, falling back to the mean over all samples, then
// to a constant for an empty ride.
func cruisingStdBaseline(samples []ride.Sample) float64 {
	sum, count := 0.0, 0
	for i := range samples {
		if samples[i].IsCruising {
			sum += samples[i].SpeedRollingStdKMH
			count++
		}
	}
	if count == 0 {
		for i := range samples {
			sum += samples[i].SpeedRollingStdKMH
			count++
		}
	}
	if count == 0 {
		return defaultStdBaseline
	}
	mean := sum / float64(count)
	if !isFinite(mean) {
		return defaultStdBaseline
	}
	return mean
}
