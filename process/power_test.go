package process

import (
	"context"
	"math"
	"testing"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

func powerRide(powers []*float64) *ride.Ride {
	r := rideAtOffsets(make([]float64, len(powers)), 5)
	for i := range r.Samples {
		r.Samples[i].PowerW = powers[i]
		r.Samples[i].TimeDeltaS = 1
	}
	r.DetectChannels()
	return r
}

func TestPowerValidatorClampsAndNulls(t *testing.T) {
	r := powerRide([]*float64{
		ride.Float64(-12), // sensor noise: clamp to zero
		ride.Float64(250),
		ride.Float64(4000), // glitch above threshold: becomes missing
	})
	cfg := config.Default()
	cfg.InterpolatePowerGaps = false

	if err := (PowerValidator{}).Process(context.Background(), testLogger(), r, cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if got := r.Samples[0].PowerW; got == nil || *got != 0 {
		t.Fatalf("negative power should clamp to 0, got %v", got)
	}
	if got := r.Samples[1].PowerW; got == nil || *got != 250 {
		t.Fatalf("in-range power should be untouched, got %v", got)
	}
	if r.Samples[2].PowerW != nil {
		t.Fatalf("power above threshold should become missing, got %v", *r.Samples[2].PowerW)
	}
}

func TestPowerValidatorInterpolatesShortGaps(t *testing.T) {
	r := powerRide([]*float64{
		ride.Float64(100), nil, nil, ride.Float64(250),
	})

	if err := (PowerValidator{}).Process(context.Background(), testLogger(), r, config.Default()); err != nil {
		t.Fatalf("validate: %v", err)
	}

	want := []float64{100, 150, 200, 250}
	for i, w := range want {
		got := r.Samples[i].PowerW
		if got == nil || math.Abs(*got-w) > 1e-9 {
			t.Fatalf("interpolated power at %d: got %v want %v", i, got, w)
		}
	}
}

func TestPowerValidatorLeavesLongGapsMissing(t *testing.T) {
	powers := []*float64{ride.Float64(100)}
	for i := 0; i < 7; i++ {
		powers = append(powers, nil)
	}
	powers = append(powers, ride.Float64(200))
	r := powerRide(powers)

	if err := (PowerValidator{}).Process(context.Background(), testLogger(), r, config.Default()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for i := 1; i <= 7; i++ {
		if r.Samples[i].PowerW != nil {
			t.Fatalf("gap longer than max should remain missing at %d", i)
		}
	}
}

func TestPowerValidatorLeavesUnboundedGapsMissing(t *testing.T) {
	r := powerRide([]*float64{nil, nil, ride.Float64(180), nil})

	if err := (PowerValidator{}).Process(context.Background(), testLogger(), r, config.Default()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if r.Samples[0].PowerW != nil || r.Samples[1].PowerW != nil {
		t.Fatalf("leading gap has no lower bound and should remain missing")
	}
	if r.Samples[3].PowerW != nil {
		t.Fatalf("trailing gap has no upper bound and should remain missing")
	}
}

func TestPowerValidatorPassthroughWithoutPowerChannel(t *testing.T) {
	r := rideAtOffsets([]float64{0, 1, 2}, 5)
	for i := range r.Samples {
		r.Samples[i].TimeDeltaS = 1
	}
	r.DetectChannels()

	if err := (PowerValidator{}).Process(context.Background(), testLogger(), r, config.Default()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for i := range r.Samples {
		if r.Samples[i].PowerW != nil {
			t.Fatalf("passthrough ride should stay power-free")
		}
	}
}
