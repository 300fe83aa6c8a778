package repository

import (
	"context"
)

// ElevationRepository persists resolved elevation lookups keyed by rounded coordinates.
type ElevationRepository interface {
	GetElevation(ctx context.Context, lat, lon float64) (float64, bool, error)
	PutElevation(ctx context.Context, lat, lon, elevation float64, source string) error
	Count(ctx context.Context) (int64, error)
}
