package render

import (
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/mr1hm/drive-alive/internal/models"
)

type PNGOptions struct {
	Width   int
	Height  int
	Padding float64
	Labels  bool
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Width: 1000, Height: 600, Padding: 24, Labels: true}
}

// projection maps lon/lat onto the canvas with an equirectangular fit, keeping aspect.
type projection struct {
	minLon, minLat float64
	scale, kx      float64
	offX, offY     float64
	height         float64
}

func newProjection(coords []models.Coordinate, opts PNGOptions) projection {
	b := RouteLine(coords).Bound()
	kx := math.Cos(b.Center().Lat() * math.Pi / 180)

	spanX := (b.Max.Lon() - b.Min.Lon()) * kx
	spanY := b.Max.Lat() - b.Min.Lat()
	availX := float64(opts.Width) - 2*opts.Padding
	availY := float64(opts.Height) - 2*opts.Padding

	scale := 1.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = math.Min(availX/spanX, availY/spanY)
	case spanX > 0:
		scale = availX / spanX
	case spanY > 0:
		scale = availY / spanY
	}

	return projection{
		minLon: b.Min.Lon(),
		minLat: b.Min.Lat(),
		scale:  scale,
		kx:     kx,
		offX:   opts.Padding + (availX-spanX*scale)/2,
		offY:   opts.Padding + (availY-spanY*scale)/2,
		height: float64(opts.Height),
	}
}

func (p projection) xy(lat, lon float64) (float64, float64) {
	x := p.offX + (lon-p.minLon)*p.kx*p.scale
	y := p.height - (p.offY + (lat-p.minLat)*p.scale)
	return x, y
}

// PNG draws the route polyline in blue and flagged points as red circles.
func PNG(w io.Writer, a models.Analysis, opts PNGOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultPNGOptions()
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if len(a.Coordinates) == 0 {
		return dc.EncodePNG(w)
	}

	proj := newProjection(a.Coordinates, opts)

	dc.SetRGBA(0, 0, 1, 0.8)
	dc.SetLineWidth(3)
	for i, c := range a.Coordinates {
		x, y := proj.xy(c.Latitude, c.Longitude)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	for _, s := range a.Flagged {
		x, y := proj.xy(s.Latitude, s.Longitude)
		dc.DrawCircle(x, y, 5)
		dc.SetRGBA(1, 0, 0, 0.7)
		dc.FillPreserve()
		dc.SetRGB(1, 0, 0)
		dc.SetLineWidth(1)
		dc.Stroke()

		if opts.Labels {
			dc.SetRGB(0.2, 0.2, 0.2)
			dc.DrawString(FormatRisk(s.Risk), x+7, y-7)
		}
	}

	return dc.EncodePNG(w)
}
