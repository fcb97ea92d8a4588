package process

import (
	"context"
	"log/slog"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

// Cadence and power floors that corroborate a low-speed reading as a
// genuine stop. A missing reading never counts as stopped.
const (
	stopCadenceFloorRPM = 10
	stopPowerFloorW     = 30
)

// StopDetector flags stopped samples and clears the cruising flag over
// qualifying stop events.
//
// A sample is provisionally stopped when its speed is under the stop
// threshold; when the ride carries cadence or power, those channels
// must agree. A single pass then tracks the active stop event: once the
// accumulated stopped duration reaches StopDurationSeconds, the whole
// span from the event's first sample through the current one is marked
// non-cruising. The decision is retroactive over the qualifying span,
// and stops that never reach the threshold leave the flag untouched.
type StopDetector struct{}

func (StopDetector) Name() string { return "stop-detector" }

func (StopDetector) Process(_ context.Context, logger *slog.Logger, r *ride.Ride, cfg config.Config) error {
	samples := r.Samples

	for i := range samples {
		s := &samples[i]
		stopped := s.SpeedKMH < cfg.StopSpeedThresholdKMH
		if r.Channels.Cadence {
			stopped = stopped && valueOr(s.CadenceRPM, 1000) < stopCadenceFloorRPM
		}
		if r.Channels.Power {
			stopped = stopped && valueOr(s.PowerW, 1000) < stopPowerFloorW
		}
		s.IsStopped = stopped
		s.IsCruising = true
	}

	var (
		eventActive bool
		eventStart  int
		duration    float64
		events      int
	)
	for i := range samples {
		if !samples[i].IsStopped {
			eventActive = false
			duration = 0
			continue
		}
		if !eventActive {
			eventActive = true
			eventStart = i
			duration = samples[i].TimeDeltaS
		} else {
			duration += samples[i].TimeDeltaS
		}
		if duration >= cfg.StopDurationSeconds {
			if samples[eventStart].IsCruising {
				events++
			}
			for j := eventStart; j <= i; j++ {
				samples[j].IsCruising = false
			}
		}
	}

	if events > 0 {
		logger.Debug("stop events detected", "events", events, "stop_duration_seconds", cfg.StopDurationSeconds)
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
