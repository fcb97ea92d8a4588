// Package ingest adapts the external FIT decoder into the pipeline's
// sample model. Parsing the binary format itself is tormoder/fit's job;
// this package only maps record messages onto ride.Sample values, drops
// records that carry neither a timestamp nor a speed, and reports an
// empty result as a parse failure rather than an empty success.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"github.com/Equationzhao/cruising/ride"
)

// ParseFile reads and parses a FIT activity file into a Ride.
func ParseFile(path string) (*ride.Ride, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ParseBytes parses FIT binary data into a Ride.
func ParseBytes(data []byte) (*ride.Ride, error) {
	return Parse(bytes.NewReader(data))
}

// Parse decodes a FIT activity stream into a Ride.
func Parse(r io.Reader) (*ride.Ride, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	return FromRecords(activity.Records)
}

// FromRecords builds a Ride from decoded record messages. Records
// missing a timestamp or a speed value are dropped; an all-dropped
// result is an error.
func FromRecords(records []*fit.RecordMsg) (*ride.Ride, error) {
	samples := make([]ride.Sample, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		speed, hasSpeed := extractSpeed(rec)
		if ts.IsZero() || !hasSpeed {
			continue
		}

		s := ride.Sample{
			Timestamp:  ts,
			SpeedMPS:   speed,
			IsCruising: true,
		}
		if p, ok := extractPower(rec); ok {
			s.PowerW = ride.Float64(p)
		}
		if c, ok := extractCadence(rec); ok {
			s.CadenceRPM = ride.Float64(c)
		}
		if d := safePositive(rec.GetDistanceScaled()); d > 0 {
			s.DistanceM = ride.Float64(d)
		}
		if hr, ok := extractHeartRate(rec); ok {
			s.HeartRateBPM = ride.Float64(hr)
		}
		if alt, ok := extractAltitude(rec); ok {
			s.AltitudeM = ride.Float64(alt)
		}
		if rec.Temperature != math.MaxInt8 {
			s.TemperatureC = ride.Float64(float64(rec.Temperature))
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no usable record samples in activity")
	}

	out := &ride.Ride{Samples: samples}
	out.DetectChannels()
	return out, nil
}

func extractSpeed(rec *fit.RecordMsg) (float64, bool) {
	speed := rec.GetEnhancedSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	speed = rec.GetSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	return 0, false
}

func extractPower(rec *fit.RecordMsg) (float64, bool) {
	if rec.Power == math.MaxUint16 {
		return 0, false
	}
	return float64(rec.Power), true
}

func extractHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func extractCadence(rec *fit.RecordMsg) (float64, bool) {
	cad256 := safePositive(rec.GetCadence256Scaled())
	if cad256 > 0 {
		return cad256, true
	}
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence), true
}

func extractAltitude(rec *fit.RecordMsg) (float64, bool) {
	alt := rec.GetEnhancedAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	alt = rec.GetAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	return 0, false
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
