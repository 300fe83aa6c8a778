// Package elevation resolves terrain elevation for coordinates from SRTM tiles,
// the Open-Meteo API, or a persistent cache in front of either.
package elevation

import (
	"context"
	"errors"
)

// ErrNotFound reports that no elevation data covers a coordinate.
var ErrNotFound = errors.New("elevation not found")

// Provider returns the elevation in meters, or an error when none is available.
type Provider interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, lat, lon float64) (float64, error)

func (f ProviderFunc) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	return f(ctx, lat, lon)
}

// None never finds an elevation.
type None struct{}

func (None) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	return 0, ErrNotFound
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
