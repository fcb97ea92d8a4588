package process

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

const mpsToKMH = 3.6

// UnitNormalizer converts speeds to km/h, sorts samples by timestamp and
// derives per-sample time deltas and cumulative time.
//
// The first sample has no predecessor, so its delta fails open to the
// median of the remaining deltas, or to 1.0 seconds when that median is
// undefined or non-positive (single-sample ride, duplicate timestamps).
type UnitNormalizer struct{}

func (UnitNormalizer) Name() string { return "unit-normalizer" }

func (UnitNormalizer) Process(_ context.Context, _ *slog.Logger, r *ride.Ride, _ config.Config) error {
	samples := r.Samples
	if len(samples) == 0 {
		return nil
	}

	// Stable keeps first-occurrence order for duplicate timestamps.
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	for i := range samples {
		samples[i].SpeedKMH = samples[i].SpeedMPS * mpsToKMH
	}

	rest := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		delta := samples[i].Timestamp.Sub(samples[i-1].Timestamp).Seconds()
		samples[i].TimeDeltaS = delta
		rest = append(rest, delta)
	}

	first := median(rest)
	if !isFinite(first) || first <= 0 {
		first = 1.0
	}
	samples[0].TimeDeltaS = first

	cum := 0.0
	for i := range samples {
		cum += samples[i].TimeDeltaS
		samples[i].CumulativeTimeS = cum
	}
	return nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
