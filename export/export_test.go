package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/Equationzhao/cruising/ride"
)

func exportRide() *ride.Ride {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	samples := []ride.Sample{
		{
			Timestamp:       start,
			SpeedMPS:        6.944,
			SpeedKMH:        25.0,
			TimeDeltaS:      1,
			CumulativeTimeS: 1,
			PowerW:          ride.Float64(200),
			CadenceRPM:      ride.Float64(90),
			IsCruising:      true,
		},
		{
			Timestamp:       start.Add(time.Second),
			SpeedMPS:        0.278,
			SpeedKMH:        1.0,
			TimeDeltaS:      1,
			CumulativeTimeS: 2,
			IsStopped:       true,
		},
	}
	r := &ride.Ride{Samples: samples}
	r.DetectChannels()
	return r
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.csv")
	if err := WriteCSV(path, exportRide()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ts_utc_iso" || rows[0][len(rows[0])-1] != "is_cruising" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "2025-06-01T08:00:00Z" {
		t.Fatalf("timestamp cell: got %q", rows[1][0])
	}
	// power_w is column 5; the second sample has no power reading.
	if rows[1][5] == "" {
		t.Fatalf("present power should not be empty")
	}
	if rows[2][5] != "" {
		t.Fatalf("missing power should be an empty cell, got %q", rows[2][5])
	}
	if rows[2][len(rows[2])-2] != "true" {
		t.Fatalf("is_stopped cell: got %q", rows[2][len(rows[2])-2])
	}
}

func TestWriteJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.jsonl")
	if err := WriteJSONL(path, exportRide()); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var obj map[string]any
		if err := json.Unmarshal(sc.Bytes(), &obj); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		if lines == 0 {
			if obj["speed_kmh"] != 25.0 {
				t.Fatalf("speed_kmh: got %v", obj["speed_kmh"])
			}
			if _, ok := obj["power_w"]; !ok {
				t.Fatalf("present power should be serialized")
			}
		}
		lines++
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}

func TestWriteParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.parquet")
	if err := WriteParquet(path, exportRide()); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(sampleParquetRow), 4)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()

	if got := pr.GetNumRows(); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}
	rows := make([]sampleParquetRow, 2)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if rows[0].SpeedKMH != 25.0 || rows[0].PowerW != 200 {
		t.Fatalf("first row mismatch: %+v", rows[0])
	}
	if !rows[1].IsStopped {
		t.Fatalf("second row should be stopped: %+v", rows[1])
	}
}
