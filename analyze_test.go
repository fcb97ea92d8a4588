package cruising

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syntheticRide is 90 seconds of steady riding at 30 km/h and 200 W with
// a ten-second traffic stop in the middle.
func syntheticRide() *ride.Ride {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	samples := make([]ride.Sample, 90)
	for i := range samples {
		speedKMH := 30.0
		power := 200.0
		if i >= 40 && i < 50 {
			speedKMH = 0.5
			power = 0
		}
		samples[i] = ride.Sample{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			SpeedMPS:  speedKMH / 3.6,
			PowerW:    ride.Float64(power),
		}
	}
	r := &ride.Ride{Samples: samples}
	r.DetectChannels()
	return r
}

func TestAnalyzeEndToEnd(t *testing.T) {
	r := syntheticRide()

	analysis, err := Analyze(context.Background(), testLogger(), r, config.Default())
	require.NoError(t, err)

	cs := analysis.CruisingSpeed
	require.True(t, cs.Success, "message: %s", cs.Message)
	require.NotNil(t, cs.CruisingSpeedKMH)
	assert.InDelta(t, 30.0, *cs.CruisingSpeedKMH, 0.5)
	assert.Equal(t, 90, cs.TotalPoints)
	assert.Less(t, cs.CruisingPoints, cs.TotalPoints, "the stop must not count as cruising")
	require.NotNil(t, cs.AvgPowerW)
	assert.InDelta(t, 200.0, *cs.AvgPowerW, 1.0)

	np := analysis.NormalizedPower
	require.True(t, np.Success, "message: %s", np.Message)
	require.NotNil(t, np.NormalizedPower)
	assert.Greater(t, *np.NormalizedPower, 0.0)
	require.NotNil(t, np.AvgPowerW)
	// The coasting stop drags the plain average below NP.
	assert.GreaterOrEqual(t, *np.NormalizedPower, *np.AvgPowerW)

	// The ride is annotated in place.
	assert.Same(t, r, analysis.Ride)
	for i := range r.Samples {
		assert.Positive(t, r.Samples[i].TimeDeltaS, "sample %d", i)
	}
	for i := 40; i < 50; i++ {
		assert.False(t, r.Samples[i].IsCruising, "stopped sample %d", i)
	}
}

func TestAnalyzeSerializesBothResults(t *testing.T) {
	analysis, err := Analyze(context.Background(), testLogger(), syntheticRide(), config.Default())
	require.NoError(t, err)

	data, err := json.Marshal(analysis)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "cruising_speed")
	assert.Contains(t, decoded, "normalized_power")
	assert.NotContains(t, decoded, "Ride", "the annotated ride stays out of the summary JSON")
}

func TestAnalyzePropagatesPipelineErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, testLogger(), syntheticRide(), config.Default())
	require.Error(t, err)
}

func TestAnalyzeBytesRejectsGarbage(t *testing.T) {
	_, err := AnalyzeBytes(context.Background(), testLogger(), []byte("junk"), config.Default())
	require.Error(t, err)
}
