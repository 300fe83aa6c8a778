package models

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// ElevatedPoint is a Coordinate with a resolved elevation in meters.
// Elevation is always concrete: failed lookups are replaced by a default.
type ElevatedPoint struct {
	Latitude  float64
	Longitude float64
	Elevation float64
}

// ScoredPoint carries the risk score of an interior route point.
type ScoredPoint struct {
	Latitude  float64
	Longitude float64
	Risk      float64
}

type Analysis struct {
	ID          string
	Coordinates []Coordinate
	Elevated    []ElevatedPoint
	Scores      []ScoredPoint
	Flagged     []ScoredPoint
	Threshold   float64
}
