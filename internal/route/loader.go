package route

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/mr1hm/drive-alive/internal/models"
)

var (
	ErrNoPoints     = errors.New("gpx contains no track or route points")
	ErrInvalidPoint = errors.New("gpx point has an invalid latitude or longitude")
)

// Load reads a GPX document and returns its points in recorded order.
// Track points are used when present, otherwise route points.
func Load(r io.Reader) ([]models.Coordinate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading gpx: %w", err)
	}

	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing gpx: %w", err)
	}

	return coordinates(doc)
}

func LoadFile(path string) ([]models.Coordinate, error) {
	doc, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing gpx file %s: %w", path, err)
	}

	return coordinates(doc)
}

func coordinates(doc *gpx.GPX) ([]models.Coordinate, error) {
	var coords []models.Coordinate
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				coords = append(coords, models.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude})
			}
		}
	}

	if len(coords) == 0 {
		for _, rte := range doc.Routes {
			for _, p := range rte.Points {
				coords = append(coords, models.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude})
			}
		}
	}

	if len(coords) == 0 {
		return nil, ErrNoPoints
	}
	for i, c := range coords {
		if !validCoordinate(c) {
			return nil, fmt.Errorf("point %d (%v, %v): %w", i, c.Latitude, c.Longitude, ErrInvalidPoint)
		}
	}
	return coords, nil
}

func validCoordinate(c models.Coordinate) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}
