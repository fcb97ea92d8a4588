// Package cruising computes cruising-speed and Normalized Power metrics
// for a single ride recording. It wires the external FIT decoder, the
// segmentation pipeline and the metric calculators into one call.
package cruising

import (
	"context"
	"log/slog"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ingest"
	"github.com/Equationzhao/cruising/metrics"
	"github.com/Equationzhao/cruising/process"
	"github.com/Equationzhao/cruising/ride"
)

// Analysis holds the annotated ride and both result records. The two
// results are independent: either can fail while the other succeeds.
type Analysis struct {
	Ride            *ride.Ride                    `json:"-"`
	CruisingSpeed   metrics.CruisingSpeedResult   `json:"cruising_speed"`
	NormalizedPower metrics.NormalizedPowerResult `json:"normalized_power"`
}

// AnalyzeFile parses a FIT file and analyzes the ride.
func AnalyzeFile(ctx context.Context, logger *slog.Logger, path string, cfg config.Config) (*Analysis, error) {
	r, err := ingest.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, logger, r, cfg)
}

// AnalyzeBytes parses FIT binary data and analyzes the ride.
func AnalyzeBytes(ctx context.Context, logger *slog.Logger, data []byte, cfg config.Config) (*Analysis, error) {
	r, err := ingest.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, logger, r, cfg)
}

// Analyze runs the default segmentation pipeline over an ingested ride
// and aggregates both metrics. The ride is annotated in place.
func Analyze(ctx context.Context, logger *slog.Logger, r *ride.Ride, cfg config.Config) (*Analysis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := process.Default().Run(ctx, logger, r, cfg); err != nil {
		return nil, err
	}
	return &Analysis{
		Ride:            r,
		CruisingSpeed:   metrics.CruisingSpeed(logger, r, cfg),
		NormalizedPower: metrics.NormalizedPower(logger, r, cfg),
	}, nil
}
