package risk

import (
	"context"
	"math"

	"github.com/mr1hm/drive-alive/internal/models"
)

// ElevationProvider resolves the elevation of a coordinate in meters.
// Any non-nil error means "not found" to the attacher.
type ElevationProvider interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// Attach pairs every coordinate with its elevation, same order and count.
// Failed or non-finite lookups take defaultElevation; a nil provider defaults every point.
// It returns the number of points that fell back to the default.
func Attach(ctx context.Context, provider ElevationProvider, coords []models.Coordinate, defaultElevation float64) ([]models.ElevatedPoint, int) {
	points := make([]models.ElevatedPoint, len(coords))
	misses := 0

	for i, c := range coords {
		elev := defaultElevation
		if provider != nil {
			v, err := provider.Elevation(ctx, c.Latitude, c.Longitude)
			if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				elev = v
			} else {
				misses++
			}
		} else {
			misses++
		}

		points[i] = models.ElevatedPoint{
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			Elevation: elev,
		}
	}

	return points, misses
}
