package process

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultPipelineEndToEnd(t *testing.T) {
	// Steady riding, a long stop, then steady riding again.
	speeds := []float64{25, 25, 25, 25, 25, 1, 1, 1, 1, 1, 1, 25, 25, 25, 25, 25}
	offsets := make([]float64, len(speeds))
	for i := range offsets {
		offsets[i] = float64(i)
	}
	r := rideAtOffsets(offsets, 0)
	for i := range r.Samples {
		r.Samples[i].SpeedMPS = speeds[i] / 3.6
	}
	r.DetectChannels()

	if err := Default().Run(context.Background(), testLogger(), r, config.Default()); err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	for i := range r.Samples {
		s := &r.Samples[i]
		if s.SpeedKMH == 0 && s.SpeedMPS != 0 {
			t.Fatalf("sample %d missing km/h conversion", i)
		}
		if s.TimeDeltaS <= 0 {
			t.Fatalf("sample %d missing time delta", i)
		}
	}

	// The six-second stop qualifies and must be fully non-cruising.
	for i := 5; i <= 10; i++ {
		if r.Samples[i].IsCruising {
			t.Fatalf("stopped sample %d should be non-cruising", i)
		}
	}
	// Some steady samples away from the stop's speed transients survive.
	cruising := 0
	for i := range r.Samples {
		if r.Samples[i].IsCruising {
			cruising++
		}
	}
	if cruising == 0 {
		t.Fatalf("expected surviving cruising samples in the steady segments")
	}
}

func TestPipelineHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := speedRide([]float64{25, 25})
	if err := Default().Run(ctx, testLogger(), r, config.Default()); err == nil {
		t.Fatalf("expected context error from cancelled run")
	}
}

func TestPipelineAppendRunsCustomStage(t *testing.T) {
	r := speedRide([]float64{25, 25})
	p := New(UnitNormalizer{}).Append(markerStage{})
	if err := p.Run(context.Background(), testLogger(), r, config.Default()); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	for i := range r.Samples {
		if r.Samples[i].Extra["marker"] != 1 {
			t.Fatalf("custom stage did not run on sample %d", i)
		}
	}
}

type markerStage struct{}

func (markerStage) Name() string { return "marker" }

func (markerStage) Process(_ context.Context, _ *slog.Logger, r *ride.Ride, _ config.Config) error {
	for i := range r.Samples {
		if r.Samples[i].Extra == nil {
			r.Samples[i].Extra = map[string]float64{}
		}
		r.Samples[i].Extra["marker"] = 1
	}
	return nil
}
