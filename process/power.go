package process

import (
	"context"
	"log/slog"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

// PowerValidator cleans the power channel. Negative readings are sensor
// noise and clamp to zero; readings above MaxPowerThresholdW are
// glitches and become missing (clamping those would bias aggregates).
// Short gaps of missing samples are then optionally closed by linear
// interpolation; a run longer than MaxPowerGapSeconds stays missing
// end to end.
type PowerValidator struct{}

func (PowerValidator) Name() string { return "power-validator" }

func (PowerValidator) Process(_ context.Context, logger *slog.Logger, r *ride.Ride, cfg config.Config) error {
	if !r.Channels.Power {
		return nil
	}
	samples := r.Samples

	glitches := 0
	for i := range samples {
		p := samples[i].PowerW
		if p == nil {
			continue
		}
		switch {
		case *p < 0:
			samples[i].PowerW = ride.Float64(0)
		case *p > cfg.MaxPowerThresholdW:
			samples[i].PowerW = nil
			glitches++
		}
	}
	if glitches > 0 {
		logger.Debug("power glitches nulled", "count", glitches, "max_power_threshold_w", cfg.MaxPowerThresholdW)
	}

	if cfg.InterpolatePowerGaps {
		interpolatePowerGaps(samples, cfg.MaxPowerGapSeconds)
	}
	return nil
}

// interpolatePowerGaps fills runs of consecutive missing power values by
// linear interpolation between the bounding readings. Runs longer than
// maxGap samples, and runs without a bound on either side, are left
// missing.
func interpolatePowerGaps(samples []ride.Sample, maxGap int) {
	if maxGap <= 0 {
		return
	}
	lastValid := -1
	for i := 0; i <= len(samples); i++ {
		if i < len(samples) && samples[i].PowerW == nil {
			continue
		}
		if lastValid >= 0 && i < len(samples) {
			gap := i - lastValid - 1
			if gap > 0 && gap <= maxGap {
				lo := *samples[lastValid].PowerW
				hi := *samples[i].PowerW
				span := float64(i - lastValid)
				for j := lastValid + 1; j < i; j++ {
					frac := float64(j-lastValid) / span
					samples[j].PowerW = ride.Float64(lo + (hi-lo)*frac)
				}
			}
		}
		if i < len(samples) {
			lastValid = i
		}
	}
}
