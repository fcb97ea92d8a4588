package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	cruising "github.com/Equationzhao/cruising"
	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/export"
)

func main() {
	var (
		fitPath   = flag.String("fit", "", "Path to input .fit file")
		outDir    = flag.String("out", "", "Optional output directory for the annotated sample table")
		format    = flag.String("format", "csv", "Annotated table format: csv|parquet|jsonl")
		ftp       = flag.Float64("ftp", 0, "FTP override in watts")
		stopSpeed = flag.Float64("stop-speed", 0, "Stop speed threshold override in km/h")
		minCruise = flag.Float64("min-cruising-speed", 0, "Minimum cruising speed override in km/h")
		verbose   = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit input.fit [--out outdir] [--format csv|parquet|jsonl] [--ftp 223]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// .env is optional; CRUISING_* variables override defaults, flags
	// override both.
	_ = godotenv.Load()
	cfg := config.FromEnv(config.Default())
	if *ftp > 0 {
		cfg.FTPWatts = *ftp
	}
	if *stopSpeed > 0 {
		cfg.StopSpeedThresholdKMH = *stopSpeed
	}
	if *minCruise > 0 {
		cfg.MinCruisingSpeedKMH = *minCruise
	}

	analysis, err := cruising.AnalyzeFile(context.Background(), logger, *fitPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cruising_analyze failed: %v\n", err)
		os.Exit(1)
	}

	printCruising(analysis)
	printNormalizedPower(analysis)

	if strings.TrimSpace(*outDir) != "" {
		if err := writeTable(*outDir, *format, analysis); err != nil {
			fmt.Fprintf(os.Stderr, "write annotated table: %v\n", err)
			os.Exit(1)
		}
	}
}

func printCruising(analysis *cruising.Analysis) {
	res := analysis.CruisingSpeed
	if !res.Success {
		fmt.Printf("cruising speed:      unavailable (%s)\n", res.Message)
		if res.AvgSpeedKMH != nil {
			fmt.Printf("avg speed:           %.2f km/h (best effort)\n", *res.AvgSpeedKMH)
		}
		return
	}
	fmt.Printf("cruising speed:      %.2f km/h\n", *res.CruisingSpeedKMH)
	fmt.Printf("avg cruising speed:  %.2f km/h\n", *res.AvgSpeedKMH)
	fmt.Printf("cruising points:     %d of %d\n", res.CruisingPoints, res.TotalPoints)
	fmt.Printf("cruising time:       %.0f s\n", res.CruisingTimeSeconds)
	if res.AvgPowerW != nil {
		fmt.Printf("avg cruising power:  %.0f W\n", *res.AvgPowerW)
	}
	if res.AvgCadenceRPM != nil {
		fmt.Printf("avg cruising cad:    %.0f rpm\n", *res.AvgCadenceRPM)
	}
	if res.AvgHeartRateBPM != nil {
		fmt.Printf("avg cruising HR:     %.0f bpm\n", *res.AvgHeartRateBPM)
	}
}

func printNormalizedPower(analysis *cruising.Analysis) {
	res := analysis.NormalizedPower
	if !res.Success {
		fmt.Printf("normalized power:    unavailable (%s)\n", res.Message)
		if res.AvgPowerW != nil {
			fmt.Printf("avg power:           %.0f W (best effort)\n", *res.AvgPowerW)
		}
		return
	}
	fmt.Printf("normalized power:    %.0f W\n", *res.NormalizedPower)
	fmt.Printf("avg power:           %.0f W\n", *res.AvgPowerW)
	if res.IntensityFactor != nil {
		fmt.Printf("intensity factor:    %.2f\n", *res.IntensityFactor)
	}
	if res.NPToAvgRatio != nil {
		fmt.Printf("NP/avg ratio:        %.2f\n", *res.NPToAvgRatio)
	}
}

func writeTable(outDir, format string, analysis *cruising.Analysis) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return export.WriteCSV(filepath.Join(outDir, "samples.csv"), analysis.Ride)
	case "parquet":
		return export.WriteParquet(filepath.Join(outDir, "samples.parquet"), analysis.Ride)
	case "jsonl":
		return export.WriteJSONL(filepath.Join(outDir, "samples.jsonl"), analysis.Ride)
	default:
		return fmt.Errorf("unsupported format %q (expected csv|parquet|jsonl)", format)
	}
}
