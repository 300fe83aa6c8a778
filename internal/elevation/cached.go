package elevation

import (
	"context"
	"log/slog"

	"github.com/mr1hm/drive-alive/internal/repository"
)

// CachedProvider answers from the repository first and stores every value the
// wrapped provider finds. Misses are not cached so a later tile download can fill them.
type CachedProvider struct {
	next   Provider
	repo   repository.ElevationRepository
	source string
}

func NewCachedProvider(next Provider, repo repository.ElevationRepository, source string) *CachedProvider {
	return &CachedProvider{
		next:   next,
		repo:   repo,
		source: source,
	}
}

func (c *CachedProvider) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	v, found, err := c.repo.GetElevation(ctx, lat, lon)
	if err != nil {
		slog.Warn("elevation cache read failed", "lat", lat, "lon", lon, "error", err)
	} else if found {
		return v, nil
	}

	v, err = c.next.Elevation(ctx, lat, lon)
	if err != nil {
		return 0, err
	}

	if err := c.repo.PutElevation(ctx, lat, lon, v, c.source); err != nil {
		slog.Warn("elevation cache write failed", "lat", lat, "lon", lon, "error", err)
	}
	return v, nil
}
