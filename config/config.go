// Package config holds every tunable threshold of the segmentation
// pipeline and the metric calculators. All thresholds are expressed in
// physical units (km/h, m/s², seconds, watts); stages convert seconds
// into sample-count windows using the observed mean sample interval.
package config

import (
	"os"
	"strconv"
)

// Config is an immutable parameter set for one analysis run.
type Config struct {
	// Stop detection.
	StopSpeedThresholdKMH float64
	StopDurationSeconds   float64

	// Acceleration.
	AccelerationThresholdMPS2 float64
	RollingWindowAccelSeconds float64

	// Cruising classification.
	MinCruisingSpeedKMH          float64
	RollingWindowSpeedStdSeconds float64
	SpeedStdDevThresholdFactor   float64

	// Normalized power.
	NPWindowSizeSeconds float64
	NPExponent          float64
	MaxPowerThresholdW  float64

	// Power gap handling.
	InterpolatePowerGaps bool
	MaxPowerGapSeconds   int

	// Optional rider FTP in watts; zero means not configured.
	FTPWatts float64
}

// Default returns the stock parameter set.
func Default() Config {
	return Config{
		StopSpeedThresholdKMH:        2.0,
		StopDurationSeconds:          5,
		AccelerationThresholdMPS2:    1.5,
		RollingWindowAccelSeconds:    3,
		MinCruisingSpeedKMH:          10.0,
		RollingWindowSpeedStdSeconds: 5,
		SpeedStdDevThresholdFactor:   1.5,
		NPWindowSizeSeconds:          30,
		NPExponent:                   4,
		MaxPowerThresholdW:           3000,
		InterpolatePowerGaps:         true,
		MaxPowerGapSeconds:           5,
	}
}

// FromEnv overlays CRUISING_* environment variables onto cfg and returns
// the result. Unset or unparseable variables leave the field unchanged.
func FromEnv(cfg Config) Config {
	overlayFloat(&cfg.StopSpeedThresholdKMH, "CRUISING_STOP_SPEED_THRESHOLD_KMH")
	overlayFloat(&cfg.StopDurationSeconds, "CRUISING_STOP_DURATION_SECONDS")
	overlayFloat(&cfg.AccelerationThresholdMPS2, "CRUISING_ACCELERATION_THRESHOLD_MPS2")
	overlayFloat(&cfg.RollingWindowAccelSeconds, "CRUISING_ROLLING_WINDOW_ACCEL")
	overlayFloat(&cfg.MinCruisingSpeedKMH, "CRUISING_MIN_CRUISING_SPEED_KMH")
	overlayFloat(&cfg.RollingWindowSpeedStdSeconds, "CRUISING_ROLLING_WINDOW_SPEED_STD")
	overlayFloat(&cfg.SpeedStdDevThresholdFactor, "CRUISING_SPEED_STD_DEV_THRESHOLD_FACTOR")
	overlayFloat(&cfg.NPWindowSizeSeconds, "CRUISING_NP_WINDOW_SIZE_SECONDS")
	overlayFloat(&cfg.NPExponent, "CRUISING_NP_EXPONENT")
	overlayFloat(&cfg.MaxPowerThresholdW, "CRUISING_MAX_POWER_THRESHOLD")
	overlayBool(&cfg.InterpolatePowerGaps, "CRUISING_INTERPOLATE_POWER_GAPS")
	overlayInt(&cfg.MaxPowerGapSeconds, "CRUISING_MAX_POWER_GAP_SECONDS")
	overlayFloat(&cfg.FTPWatts, "CRUISING_FTP")
	return cfg
}

func overlayFloat(dst *float64, key string) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		*dst = v
	}
}

func overlayInt(dst *int, key string) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*dst = v
	}
}

func overlayBool(dst *bool, key string) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		*dst = v
	}
}
