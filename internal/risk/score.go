package risk

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/mr1hm/drive-alive/internal/models"
)

// DefaultThreshold is the risk above which a point is flagged.
const DefaultThreshold = 40.0

const straightAngle = 180.0

// TurnAngle returns the interior angle in degrees of the path prev -> curr -> next.
// Points are [lon, lat] and treated as planar. 180 means straight through, smaller is sharper.
// A zero-length leg (coincident points) has no direction and counts as straight.
func TurnAngle(prev, curr, next orb.Point) float64 {
	baX, baY := prev.X()-curr.X(), prev.Y()-curr.Y()
	bcX, bcY := next.X()-curr.X(), next.Y()-curr.Y()

	ba := math.Hypot(baX, baY)
	bc := math.Hypot(bcX, bcY)
	if ba == 0 || bc == 0 {
		return straightAngle
	}

	cos := (baX*bcX + baY*bcY) / (ba * bc)
	cos = math.Max(-1, math.Min(1, cos))

	angle := math.Acos(cos) * 180 / math.Pi
	if math.IsNaN(angle) {
		return straightAngle
	}
	return angle
}

// ElevationGain is the local vertical excursion of a 3-point window, regardless of direction.
func ElevationGain(a, b, c float64) float64 {
	return max(a, b, c) - min(a, b, c)
}

// WindowRisk scores the middle point of a window: elevation gain plus angle deficit.
// Meters and degrees are summed unscaled; the result only matters relative to a threshold.
func WindowRisk(prev, curr, next models.ElevatedPoint) float64 {
	gain := ElevationGain(prev.Elevation, curr.Elevation, next.Elevation)
	angle := TurnAngle(point(prev), point(curr), point(next))
	return gain + (straightAngle - angle)
}

// Score returns one ScoredPoint per interior point; Score(p)[i] belongs to p[i+1].
// Routes shorter than three points have no interior and yield an empty slice.
func Score(points []models.ElevatedPoint) []models.ScoredPoint {
	if len(points) < 3 {
		return []models.ScoredPoint{}
	}

	scores := make([]models.ScoredPoint, 0, len(points)-2)
	for i := 1; i < len(points)-1; i++ {
		curr := points[i]
		scores = append(scores, models.ScoredPoint{
			Latitude:  curr.Latitude,
			Longitude: curr.Longitude,
			Risk:      WindowRisk(points[i-1], curr, points[i+1]),
		})
	}
	return scores
}

// Select keeps the scores strictly above threshold, in order.
func Select(scores []models.ScoredPoint, threshold float64) []models.ScoredPoint {
	flagged := make([]models.ScoredPoint, 0)
	for _, s := range scores {
		if s.Risk > threshold {
			flagged = append(flagged, s)
		}
	}
	return flagged
}

func point(p models.ElevatedPoint) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}
