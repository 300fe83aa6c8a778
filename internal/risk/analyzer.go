package risk

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mr1hm/drive-alive/internal/models"
)

// Analyzer runs attach, score and select for one route at a time.
// It holds no per-route state and may be shared between goroutines
// as long as the provider is safe for concurrent reads.
type Analyzer struct {
	Provider         ElevationProvider
	Threshold        float64
	DefaultElevation float64
}

func NewAnalyzer(provider ElevationProvider, threshold float64) *Analyzer {
	return &Analyzer{
		Provider:  provider,
		Threshold: threshold,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, coords []models.Coordinate) models.Analysis {
	return a.AnalyzeWithThreshold(ctx, coords, a.Threshold)
}

func (a *Analyzer) AnalyzeWithThreshold(ctx context.Context, coords []models.Coordinate, threshold float64) models.Analysis {
	id := uuid.NewString()

	elevated, misses := Attach(ctx, a.Provider, coords, a.DefaultElevation)
	if misses > 0 {
		slog.Debug("elevation lookups defaulted", "analysis_id", id, "misses", misses, "points", len(coords))
	}

	scores := Score(elevated)
	flagged := Select(scores, threshold)

	slog.Info("route analyzed",
		"analysis_id", id,
		"points", len(coords),
		"scored", len(scores),
		"flagged", len(flagged),
		"threshold", threshold,
	)

	return models.Analysis{
		ID:          id,
		Coordinates: coords,
		Elevated:    elevated,
		Scores:      scores,
		Flagged:     flagged,
		Threshold:   threshold,
	}
}
