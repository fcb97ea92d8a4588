// Package export writes the fully-annotated sample table for
// presentation consumers. CSV and Parquet carry one row per sample with
// every raw and derived field; JSONL carries one JSON object per
// sample for streaming consumers.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/Equationzhao/cruising/ride"
)

var csvHeader = []string{
	"ts_utc_iso", "time_delta_s", "cumulative_time_s",
	"speed_mps", "speed_kmh",
	"power_w", "cadence_rpm", "distance_m", "heart_rate_bpm", "altitude_m", "temperature_c",
	"acceleration_mps2", "speed_rolling_std_kmh",
	"is_stopped", "is_cruising",
}

// WriteCSV writes the annotated table as CSV. Missing channel values
// become empty cells.
func WriteCSV(path string, r *ride.Ride) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for i := range r.Samples {
		s := &r.Samples[i]
		row := []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(s.TimeDeltaS),
			formatFloat(s.CumulativeTimeS),
			formatFloat(s.SpeedMPS),
			formatFloat(s.SpeedKMH),
			formatFloatPtr(s.PowerW),
			formatFloatPtr(s.CadenceRPM),
			formatFloatPtr(s.DistanceM),
			formatFloatPtr(s.HeartRateBPM),
			formatFloatPtr(s.AltitudeM),
			formatFloatPtr(s.TemperatureC),
			formatFloat(s.AccelerationMPS2),
			formatFloat(s.SpeedRollingStdKMH),
			strconv.FormatBool(s.IsStopped),
			strconv.FormatBool(s.IsCruising),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteJSONL writes one JSON object per sample.
func WriteJSONL(path string, r *ride.Ride) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for i := range r.Samples {
		if err := enc.Encode(&r.Samples[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type sampleParquetRow struct {
	TSUTCISO           string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TimeDeltaS         float64 `parquet:"name=time_delta_s, type=DOUBLE"`
	CumulativeTimeS    float64 `parquet:"name=cumulative_time_s, type=DOUBLE"`
	SpeedMPS           float64 `parquet:"name=speed_mps, type=DOUBLE"`
	SpeedKMH           float64 `parquet:"name=speed_kmh, type=DOUBLE"`
	PowerW             float64 `parquet:"name=power_w, type=DOUBLE"`
	CadenceRPM         float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	DistanceM          float64 `parquet:"name=distance_m, type=DOUBLE"`
	HeartRateBPM       float64 `parquet:"name=heart_rate_bpm, type=DOUBLE"`
	AltitudeM          float64 `parquet:"name=altitude_m, type=DOUBLE"`
	TemperatureC       float64 `parquet:"name=temperature_c, type=DOUBLE"`
	AccelerationMPS2   float64 `parquet:"name=acceleration_mps2, type=DOUBLE"`
	SpeedRollingStdKMH float64 `parquet:"name=speed_rolling_std_kmh, type=DOUBLE"`
	IsStopped          bool    `parquet:"name=is_stopped, type=BOOLEAN"`
	IsCruising         bool    `parquet:"name=is_cruising, type=BOOLEAN"`
}

// WriteParquet writes the annotated table as snappy-compressed Parquet.
// Missing channel values become NaN.
func WriteParquet(path string, r *ride.Ride) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for i := range r.Samples {
		s := &r.Samples[i]
		row := sampleParquetRow{
			TSUTCISO:           s.Timestamp.UTC().Format(time.RFC3339),
			TimeDeltaS:         s.TimeDeltaS,
			CumulativeTimeS:    s.CumulativeTimeS,
			SpeedMPS:           s.SpeedMPS,
			SpeedKMH:           s.SpeedKMH,
			PowerW:             valueOrNaN(s.PowerW),
			CadenceRPM:         valueOrNaN(s.CadenceRPM),
			DistanceM:          valueOrNaN(s.DistanceM),
			HeartRateBPM:       valueOrNaN(s.HeartRateBPM),
			AltitudeM:          valueOrNaN(s.AltitudeM),
			TemperatureC:       valueOrNaN(s.TemperatureC),
			AccelerationMPS2:   s.AccelerationMPS2,
			SpeedRollingStdKMH: s.SpeedRollingStdKMH,
			IsStopped:          s.IsStopped,
			IsCruising:         s.IsCruising,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
