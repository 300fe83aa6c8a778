package api

import (
	"bytes"
	_ "embed"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/drive-alive/internal/elevation"
	"github.com/mr1hm/drive-alive/internal/models"
	"github.com/mr1hm/drive-alive/internal/render"
	"github.com/mr1hm/drive-alive/internal/risk"
	"github.com/mr1hm/drive-alive/internal/route"
)

//go:embed web/index.html
var indexHTML []byte

type Handler struct {
	analyzer       *risk.Analyzer
	provider       elevation.Provider
	uploadMaxBytes int64
}

func NewHandler(analyzer *risk.Analyzer, provider elevation.Provider, uploadMaxBytes int64) *Handler {
	return &Handler{
		analyzer:       analyzer,
		provider:       provider,
		uploadMaxBytes: uploadMaxBytes,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.index)
	r.GET("/health", h.health)
	r.GET("/api/elevation", h.getElevation)
	r.POST("/api/routes/analyze", h.analyzeGeoJSON)
	r.POST("/api/routes/analyze.png", h.analyzePNG)
}

func (h *Handler) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) analyzeGeoJSON(c *gin.Context) {
	analysis, ok := h.analyzeUpload(c)
	if !ok {
		return
	}

	c.Header("X-Analysis-ID", analysis.ID)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, render.GeoJSON(analysis))
}

func (h *Handler) analyzePNG(c *gin.Context) {
	analysis, ok := h.analyzeUpload(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, analysis, render.DefaultPNGOptions()); err != nil {
		slog.Error("failed to render png", "analysis_id", analysis.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render map"})
		return
	}

	c.Header("X-Analysis-ID", analysis.ID)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// analyzeUpload reads the "file" GPX part and runs the analyzer. On failure it
// writes the error response and returns false.
func (h *Handler) analyzeUpload(c *gin.Context) (models.Analysis, bool) {
	threshold := h.analyzer.Threshold
	if t := c.Query("threshold"); t != "" {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a finite number"})
			return models.Analysis{}, false
		}
		threshold = v
	}

	if c.Request.ContentLength > h.uploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
		return models.Analysis{}, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadMaxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return models.Analysis{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "gpx file is required in form field \"file\""})
		return models.Analysis{}, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return models.Analysis{}, false
	}
	defer f.Close()

	coords, err := route.Load(f)
	if err != nil {
		slog.Info("rejected gpx upload", "filename", fh.Filename, "error", err)
		msg := "invalid gpx file"
		switch {
		case errors.Is(err, route.ErrNoPoints):
			msg = route.ErrNoPoints.Error()
		case errors.Is(err, route.ErrInvalidPoint):
			msg = route.ErrInvalidPoint.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return models.Analysis{}, false
	}

	return h.analyzer.AnalyzeWithThreshold(c.Request.Context(), coords, threshold), true
}

type elevationResponse struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Found     bool     `json:"found"`
	Elevation *float64 `json:"elevation"`
}

func (h *Handler) getElevation(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be valid coordinates"})
		return
	}

	resp := elevationResponse{Lat: lat, Lon: lon}
	v, err := h.provider.Elevation(c.Request.Context(), lat, lon)
	if err == nil {
		resp.Found = true
		resp.Elevation = &v
	} else if !errors.Is(err, elevation.ErrNotFound) {
		slog.Debug("elevation lookup failed", "lat", lat, "lon", lon, "error", err)
	}

	c.JSON(http.StatusOK, resp)
}
