package ride

import (
	"math"
	"time"
)

// Sample is one sensor reading plus the fields derived by the pipeline.
// Optional channels are pointers so an absent reading is distinguishable
// from a zero reading; derived fields are plain values filled in stage by
// stage.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	SpeedMPS  float64   `json:"speed_mps"`

	PowerW       *float64 `json:"power_w,omitempty"`
	CadenceRPM   *float64 `json:"cadence_rpm,omitempty"`
	DistanceM    *float64 `json:"distance_m,omitempty"`
	HeartRateBPM *float64 `json:"heart_rate_bpm,omitempty"`
	AltitudeM    *float64 `json:"altitude_m,omitempty"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`

	// Extra carries sensor channels the model does not name.
	Extra map[string]float64 `json:"extra,omitempty"`

	SpeedKMH           float64 `json:"speed_kmh"`
	TimeDeltaS         float64 `json:"time_delta_s"`
	CumulativeTimeS    float64 `json:"cumulative_time_s"`
	AccelerationMPS2   float64 `json:"acceleration_mps2"`
	SpeedRollingStdKMH float64 `json:"speed_rolling_std_kmh"`
	IsStopped          bool    `json:"is_stopped"`
	IsCruising         bool    `json:"is_cruising"`
}

// Channels records which optional channels carried at least one reading.
// Computed once at ingest and threaded through the pipeline so stages do
// not rescan the ride to discover what the sensors provided.
type Channels struct {
	Power     bool `json:"power"`
	Cadence   bool `json:"cadence"`
	Distance  bool `json:"distance"`
	HeartRate bool `json:"heart_rate"`
}

// Ride is one activity recording: samples in ascending timestamp order
// after normalization, plus channel presence metadata.
type Ride struct {
	Samples  []Sample `json:"samples"`
	Channels Channels `json:"channels"`
}

// Len returns the sample count.
func (r *Ride) Len() int { return len(r.Samples) }

// DetectChannels recomputes the presence flags from the current samples.
func (r *Ride) DetectChannels() {
	var ch Channels
	for i := range r.Samples {
		s := &r.Samples[i]
		if s.PowerW != nil {
			ch.Power = true
		}
		if s.CadenceRPM != nil {
			ch.Cadence = true
		}
		if s.DistanceM != nil {
			ch.Distance = true
		}
		if s.HeartRateBPM != nil {
			ch.HeartRate = true
		}
	}
	r.Channels = ch
}

// MeanTimeDelta returns the mean per-sample interval in seconds, or 1.0
// when the ride is empty or the mean is non-positive. Stages use it to
// convert second-denominated window sizes into sample counts.
func (r *Ride) MeanTimeDelta() float64 {
	if len(r.Samples) == 0 {
		return 1.0
	}
	sum := 0.0
	for i := range r.Samples {
		sum += r.Samples[i].TimeDeltaS
	}
	mean := sum / float64(len(r.Samples))
	if !isFinite(mean) || mean <= 0 {
		return 1.0
	}
	return mean
}

// TotalTime returns the sum of per-sample time deltas in seconds.
func (r *Ride) TotalTime() float64 {
	sum := 0.0
	for i := range r.Samples {
		sum += r.Samples[i].TimeDeltaS
	}
	return sum
}

// Float64 returns a pointer to v. Convenience for optional channels.
func Float64(v float64) *float64 {
	out := v
	return &out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
