// Package render turns an analysis into map output: a GeoJSON document for
// browser maps and a static PNG preview.
package render

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/drive-alive/internal/models"
)

// FormatRisk renders a score the way markers display it, with one decimal.
func FormatRisk(risk float64) string {
	return strconv.FormatFloat(risk, 'f', 1, 64)
}

func RouteLine(coords []models.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Longitude, c.Latitude}
	}
	return ls
}

// LengthKm is the great-circle length of the route.
func LengthKm(coords []models.Coordinate) float64 {
	return geo.LengthHaversine(RouteLine(coords)) / 1000
}

// GeoJSON builds a FeatureCollection with the route line first, followed by one
// point feature per flagged score.
func GeoJSON(a models.Analysis) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if len(a.Coordinates) > 0 {
		line := geojson.NewFeature(RouteLine(a.Coordinates))
		line.Properties["kind"] = "route"
		line.Properties["points"] = len(a.Coordinates)
		line.Properties["color"] = "blue"
		line.Properties["weight"] = 3
		line.Properties["opacity"] = 0.8
		fc.Append(line)
	}

	for _, s := range a.Flagged {
		marker := geojson.NewFeature(orb.Point{s.Longitude, s.Latitude})
		marker.Properties["kind"] = "risk"
		marker.Properties["risk"] = math.Round(s.Risk*10) / 10
		marker.Properties["label"] = "Risk Score: " + FormatRisk(s.Risk)
		marker.Properties["color"] = "red"
		marker.Properties["radius"] = 5
		marker.Properties["fill_opacity"] = 0.7
		fc.Append(marker)
	}

	fc.ExtraMembers = geojson.Properties{
		"analysis_id": a.ID,
		"threshold":   a.Threshold,
		"scored":      len(a.Scores),
		"flagged":     len(a.Flagged),
		"length_km":   math.Round(LengthKm(a.Coordinates)*100) / 100,
	}

	return fc
}
