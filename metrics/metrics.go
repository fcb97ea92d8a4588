// Package metrics aggregates a classified ride into its two result
// records: time-weighted cruising speed and Normalized Power. Both
// weight by per-sample time deltas, never by sample count, so irregular
// sampling intervals do not bias the averages.
package metrics

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

// CruisingSpeedResult reports the time-weighted cruising metrics, or a
// structured failure when no cruising segment survives classification.
type CruisingSpeedResult struct {
	Success             bool     `json:"success"`
	CruisingSpeedKMH    *float64 `json:"cruising_speed,omitempty"`
	AvgSpeedKMH         *float64 `json:"avg_speed,omitempty"`
	AvgPowerW           *float64 `json:"avg_power,omitempty"`
	AvgCadenceRPM       *float64 `json:"avg_cadence,omitempty"`
	AvgHeartRateBPM     *float64 `json:"avg_heart_rate,omitempty"`
	CruisingPoints      int      `json:"cruising_points"`
	TotalPoints         int      `json:"total_points"`
	CruisingTimeSeconds float64  `json:"cruising_time_seconds"`
	Message             string   `json:"message,omitempty"`
}

// NormalizedPowerResult reports NP and its derived ratios, or a
// structured failure with best-effort fields when the ride cannot
// support the calculation.
type NormalizedPowerResult struct {
	Success         bool     `json:"success"`
	NormalizedPower *float64 `json:"normalized_power,omitempty"`
	AvgPowerW       *float64 `json:"avg_power,omitempty"`
	IntensityFactor *float64 `json:"intensity_factor,omitempty"`
	NPToAvgRatio    *float64 `json:"np_to_avg_ratio,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// CruisingSpeed computes the time-weighted mean speed over the samples
// the pipeline left flagged as cruising, plus weighted power, cadence
// and heart-rate means for channels with at least one reading in the
// cruising subset.
func CruisingSpeed(logger *slog.Logger, r *ride.Ride, _ config.Config) CruisingSpeedResult {
	if logger == nil {
		logger = slog.Default()
	}
	samples := r.Samples

	cruising := make([]int, 0, len(samples))
	for i := range samples {
		if samples[i].IsCruising {
			cruising = append(cruising, i)
		}
	}

	if len(cruising) == 0 {
		logThresholdOverview(logger, r)
		return CruisingSpeedResult{
			Success:     false,
			TotalPoints: len(samples),
			Message:     "No cruising data identified",
		}
	}

	totalTime := 0.0
	for _, i := range cruising {
		totalTime += samples[i].TimeDeltaS
	}

	if totalTime <= 0 {
		logger.Warn("total cruising time is zero or negative, cannot weight by time",
			"cruising_points", len(cruising))
		return CruisingSpeedResult{
			Success:             false,
			AvgSpeedKMH:         ride.Float64(meanSpeed(samples, cruising)),
			CruisingPoints:      len(cruising),
			TotalPoints:         len(samples),
			CruisingTimeSeconds: totalTime,
			Message:             "Abnormal total cruising time",
		}
	}

	weighted := 0.0
	for _, i := range cruising {
		weighted += samples[i].SpeedKMH * samples[i].TimeDeltaS
	}

	result := CruisingSpeedResult{
		Success:             true,
		CruisingSpeedKMH:    ride.Float64(weighted / totalTime),
		AvgSpeedKMH:         ride.Float64(meanSpeed(samples, cruising)),
		CruisingPoints:      len(cruising),
		TotalPoints:         len(samples),
		CruisingTimeSeconds: totalTime,
	}

	result.AvgPowerW = weightedChannelMean(samples, cruising, totalTime, func(s *ride.Sample) *float64 { return s.PowerW })
	result.AvgCadenceRPM = weightedChannelMean(samples, cruising, totalTime, func(s *ride.Sample) *float64 { return s.CadenceRPM })
	result.AvgHeartRateBPM = weightedChannelMean(samples, cruising, totalTime, func(s *ride.Sample) *float64 { return s.HeartRateBPM })
	return result
}

// NormalizedPower computes the rolling-mean / fourth-power / mean /
// fourth-root metric over the power channel. Short rides fail with the
// weighted average power still reported.
func NormalizedPower(logger *slog.Logger, r *ride.Ride, cfg config.Config) NormalizedPowerResult {
	if logger == nil {
		logger = slog.Default()
	}
	samples := r.Samples

	hasPower := false
	if r.Channels.Power {
		for i := range samples {
			if samples[i].PowerW != nil {
				hasPower = true
				break
			}
		}
	}
	if !hasPower {
		return NormalizedPowerResult{
			Success: false,
			Message: "No power data available",
		}
	}

	avgPower := weightedAvgPower(samples)

	window := npWindowSamples(cfg.NPWindowSizeSeconds, r.MeanTimeDelta())
	if len(samples) < window {
		return NormalizedPowerResult{
			Success:   false,
			AvgPowerW: ride.Float64(avgPower),
			Message:   fmt.Sprintf("Ride too short for NP calculation (minimum %.0fs)", cfg.NPWindowSizeSeconds),
		}
	}

	rolled, valid := rollingPowerMean(samples, window)

	exponent := cfg.NPExponent
	if exponent <= 0 {
		exponent = 4
	}
	total := 0.0
	count := 0
	for i := range rolled {
		if !valid[i] {
			continue
		}
		total += math.Pow(rolled[i], exponent)
		count++
	}
	if count == 0 {
		return NormalizedPowerResult{
			Success: false,
			Message: "No power data available",
		}
	}
	np := math.Pow(total/float64(count), 1/exponent)

	result := NormalizedPowerResult{
		Success:         true,
		NormalizedPower: ride.Float64(np),
		AvgPowerW:       ride.Float64(avgPower),
	}
	if cfg.FTPWatts > 0 {
		result.IntensityFactor = ride.Float64(np / cfg.FTPWatts)
	}
	if avgPower > 0 {
		result.NPToAvgRatio = ride.Float64(np / avgPower)
	}

	logger.Debug("normalized power computed",
		"np_w", np, "avg_power_w", avgPower, "window_samples", window)
	return result
}

// weightedAvgPower is sum(power×dt)/sum(dt) with missing power skipped
// from the numerator; a non-positive total time falls back to the plain
// mean of present readings.
func weightedAvgPower(samples []ride.Sample) float64 {
	num, den := 0.0, 0.0
	plainSum, plainCount := 0.0, 0
	for i := range samples {
		den += samples[i].TimeDeltaS
		if p := samples[i].PowerW; p != nil {
			num += *p * samples[i].TimeDeltaS
			plainSum += *p
			plainCount++
		}
	}
	if den > 0 {
		return num / den
	}
	if plainCount == 0 {
		return 0
	}
	return plainSum / float64(plainCount)
}

// rollingPowerMean is a centered rolling mean over the power channel,
// truncated at the edges and requiring at least one present reading per
// window.
func rollingPowerMean(samples []ride.Sample, window int) (values []float64, valid []bool) {
	n := len(samples)
	values = make([]float64, n)
	valid = make([]bool, n)

	left := (window - 1) / 2
	right := window / 2
	for i := 0; i < n; i++ {
		lo, hi := i-left, i+right
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		sum, count := 0.0, 0
		for j := lo; j <= hi; j++ {
			if p := samples[j].PowerW; p != nil {
				sum += *p
				count++
			}
		}
		if count > 0 {
			values[i] = sum / float64(count)
			valid[i] = true
		}
	}
	return values, valid
}

func npWindowSamples(seconds, meanDelta float64) int {
	if meanDelta <= 0 {
		meanDelta = 1.0
	}
	w := int(math.Round(seconds / meanDelta))
	if w < 1 {
		w = 1
	}
	return w
}

func meanSpeed(samples []ride.Sample, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += samples[i].SpeedKMH
	}
	return sum / float64(len(idx))
}

// weightedChannelMean weights present readings by time delta over the
// given subset; it returns nil when the channel has no reading there.
func weightedChannelMean(samples []ride.Sample, idx []int, totalTime float64, get func(*ride.Sample) *float64) *float64 {
	sum := 0.0
	found := false
	for _, i := range idx {
		if v := get(&samples[i]); v != nil {
			sum += *v * samples[i].TimeDeltaS
			found = true
		}
	}
	if !found || totalTime <= 0 {
		return nil
	}
	return ride.Float64(sum / totalTime)
}

// logThresholdOverview emits the data overview used to debug thresholds
// when no cruising segment survives.
func logThresholdOverview(logger *slog.Logger, r *ride.Ride) {
	samples := r.Samples
	if len(samples) == 0 {
		logger.Warn("no cruising data identified with current thresholds", "total_points", 0)
		return
	}

	var (
		speedSum           float64
		minSpeed           = math.Inf(1)
		maxSpeed           = math.Inf(-1)
		stoppedSpeedSum    float64
		stoppedCount       int
		maxAbsAccel        float64
		maxStd             float64
		powerSum, powerMax float64
		powerMin           = math.Inf(1)
		powerCount         int
	)
	for i := range samples {
		s := &samples[i]
		speedSum += s.SpeedKMH
		minSpeed = math.Min(minSpeed, s.SpeedKMH)
		maxSpeed = math.Max(maxSpeed, s.SpeedKMH)
		if s.IsStopped {
			stoppedSpeedSum += s.SpeedKMH
			stoppedCount++
		}
		maxAbsAccel = math.Max(maxAbsAccel, math.Abs(s.AccelerationMPS2))
		maxStd = math.Max(maxStd, s.SpeedRollingStdKMH)
		if s.PowerW != nil {
			powerSum += *s.PowerW
			powerMax = math.Max(powerMax, *s.PowerW)
			powerMin = math.Min(powerMin, *s.PowerW)
			powerCount++
		}
	}

	attrs := []any{
		"total_points", len(samples),
		"avg_speed_kmh", speedSum / float64(len(samples)),
		"max_speed_kmh", maxSpeed,
		"min_speed_kmh", minSpeed,
		"max_abs_acceleration_mps2", maxAbsAccel,
		"max_speed_rolling_std_kmh", maxStd,
	}
	if stoppedCount > 0 {
		attrs = append(attrs, "stopped_avg_speed_kmh", stoppedSpeedSum/float64(stoppedCount))
	}
	if powerCount > 0 {
		attrs = append(attrs,
			"avg_power_w", powerSum/float64(powerCount),
			"max_power_w", powerMax,
			"min_power_w", powerMin,
		)
	}
	logger.Warn("no cruising data identified with current thresholds", attrs...)
}
