package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mr1hm/drive-alive/internal/models"
	"github.com/mr1hm/drive-alive/internal/render"
	"github.com/mr1hm/drive-alive/internal/risk"
	"github.com/mr1hm/drive-alive/internal/route"
	"github.com/mr1hm/drive-alive/internal/worker"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Score one or more GPX routes",
	Long: `Analyse GPX files and print the points whose risk exceeds the threshold.

Each file is analysed independently; files run concurrently on the worker pool.

Examples:
  route-risk analyze commute.gpx
  route-risk analyze --threshold 60 --geojson out/ a.gpx b.gpx
  route-risk analyze --provider openmeteo --png out/ mountain.gpx

Flagged points are printed as lat,lon,risk with the risk rounded to one decimal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		geojsonDir, _ := cmd.Flags().GetString("geojson")
		pngDir, _ := cmd.Flags().GetString("png")
		for _, dir := range []string{geojsonDir, pngDir} {
			if dir == "" {
				continue
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
		}

		provider, closeProvider, err := openProvider(cfg)
		if err != nil {
			return err
		}
		defer closeProvider()

		analyzer := risk.NewAnalyzer(provider, cfg.Risk.Threshold)
		analyzer.DefaultElevation = cfg.Risk.DefaultElevation

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		results := analyzeFiles(ctx, analyzer, args, cfg.Worker.Count, cfg.Worker.BufferSize)

		failed := 0
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(out, "== %s\nerror: %v\n\n", r.Job, r.Err)
				continue
			}
			writeReport(out, r.Job, r.Value)

			if err := writeOutputs(r.Job, r.Value, geojsonDir, pngDir); err != nil {
				failed++
				fmt.Fprintf(out, "error: %v\n\n", err)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Float64("threshold", risk.DefaultThreshold, "Risk threshold; points scoring above it are flagged")
	analyzeCmd.Flags().String("geojson", "", "Write a .geojson map document per file into this directory")
	analyzeCmd.Flags().String("png", "", "Write a .png preview per file into this directory")
}

// analyzeFiles runs one analysis per path. An analysis that overlaps
// cancellation is reported as failed since its lookups fell back to defaults.
func analyzeFiles(ctx context.Context, analyzer *risk.Analyzer, paths []string, workers, bufferSize int) []worker.Result[string, models.Analysis] {
	return worker.Run(ctx, workers, bufferSize, paths, func(ctx context.Context, path string) (models.Analysis, error) {
		coords, err := route.LoadFile(path)
		if err != nil {
			return models.Analysis{}, err
		}
		a := analyzer.Analyze(ctx, coords)
		if err := ctx.Err(); err != nil {
			return models.Analysis{}, fmt.Errorf("analysis of %s interrupted: %w", path, err)
		}
		return a, nil
	})
}

func writeReport(w io.Writer, path string, a models.Analysis) {
	fmt.Fprintf(w, "== %s (analysis %s)\n", path, a.ID)
	fmt.Fprintf(w, "points: %d, scored: %d, flagged: %d, threshold: %s, length: %.2f km\n",
		len(a.Coordinates), len(a.Scores), len(a.Flagged), render.FormatRisk(a.Threshold), render.LengthKm(a.Coordinates))

	if len(a.Flagged) > 0 {
		fmt.Fprintln(w, "lat,lon,risk")
		for _, s := range a.Flagged {
			fmt.Fprintf(w, "%.6f,%.6f,%s\n", s.Latitude, s.Longitude, render.FormatRisk(s.Risk))
		}
	}
	fmt.Fprintln(w)
}

func writeOutputs(path string, a models.Analysis, geojsonDir, pngDir string) error {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if geojsonDir != "" {
		raw, err := render.GeoJSON(a).MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode geojson for %s: %w", path, err)
		}
		if err := os.WriteFile(filepath.Join(geojsonDir, stem+".geojson"), raw, 0o644); err != nil {
			return fmt.Errorf("failed to write geojson for %s: %w", path, err)
		}
	}

	if pngDir != "" {
		f, err := os.Create(filepath.Join(pngDir, stem+".png"))
		if err != nil {
			return fmt.Errorf("failed to create png for %s: %w", path, err)
		}
		defer f.Close()

		if err := render.PNG(f, a, render.DefaultPNGOptions()); err != nil {
			return fmt.Errorf("failed to render png for %s: %w", path, err)
		}
	}

	return nil
}
