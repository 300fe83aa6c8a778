package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/goleak"

	"github.com/mr1hm/drive-alive/internal/elevation"
	"github.com/mr1hm/drive-alive/internal/risk"
)

// Right-angle turn at the middle point: risk 90 with flat elevation.
const rightAngleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="0" lon="0"></trkpt>
    <trkpt lat="0" lon="1"></trkpt>
    <trkpt lat="1" lon="1"></trkpt>
  </trkseg></trk>
</gpx>`

const nanPointGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="0" lon="0"></trkpt>
    <trkpt lat="NaN" lon="1"></trkpt>
    <trkpt lat="1" lon="1"></trkpt>
  </trkseg></trk>
</gpx>`

const noPointsGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`

type featureCollection struct {
	Type      string    `json:"type"`
	Threshold float64   `json:"threshold"`
	Scored    int       `json:"scored"`
	Flagged   int       `json:"flagged"`
	Features  []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Type string `json:"type"`
	} `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func flatProvider(elev float64) elevation.Provider {
	return elevation.ProviderFunc(func(ctx context.Context, lat, lon float64) (float64, error) {
		return elev, nil
	})
}

func setupTestRouter(provider elevation.Provider, maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(risk.NewAnalyzer(provider, risk.DefaultThreshold), provider, maxBytes)
	handler.RegisterRoutes(router)
	return router
}

func uploadRequest(t *testing.T, path, gpx string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "route.gpx")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	fw.Write([]byte(gpx))
	mw.Close()

	req, _ := http.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyze_ReturnsGeoJSON(t *testing.T) {
	router := setupTestRouter(flatProvider(100), 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/routes/analyze", rightAngleGPX))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", ct)
	}
	if w.Header().Get("X-Analysis-ID") == "" {
		t.Error("expected analysis id header")
	}

	var fc featureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if fc.Scored != 1 || fc.Flagged != 1 || fc.Threshold != 40 {
		t.Errorf("unexpected summary: %+v", fc)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected route and 1 marker, got %d features", len(fc.Features))
	}
	if fc.Features[1].Properties["label"] != "Risk Score: 90.0" {
		t.Errorf("unexpected marker label %v", fc.Features[1].Properties["label"])
	}
}

func TestAnalyze_ThresholdQuery(t *testing.T) {
	router := setupTestRouter(flatProvider(0), 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/routes/analyze?threshold=90", rightAngleGPX))

	var fc featureCollection
	json.Unmarshal(w.Body.Bytes(), &fc)

	if fc.Threshold != 90 {
		t.Errorf("expected threshold 90, got %v", fc.Threshold)
	}
	if fc.Flagged != 0 {
		t.Errorf("expected risk 90 not flagged at threshold 90, got %d", fc.Flagged)
	}
}

func TestAnalyze_MissingElevationStillScores(t *testing.T) {
	router := setupTestRouter(elevation.None{}, 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/routes/analyze", rightAngleGPX))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var fc featureCollection
	json.Unmarshal(w.Body.Bytes(), &fc)
	if fc.Flagged != 1 {
		t.Errorf("expected curvature-only flag, got %d", fc.Flagged)
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	router := setupTestRouter(flatProvider(0), 1<<20)

	tests := []struct {
		name string
		req  func() *http.Request
		code int
		msg  string
	}{
		{
			name: "bad threshold",
			req:  func() *http.Request { return uploadRequest(t, "/api/routes/analyze?threshold=abc", rightAngleGPX) },
			code: http.StatusBadRequest,
			msg:  "threshold",
		},
		{
			name: "missing file",
			req: func() *http.Request {
				req, _ := http.NewRequest("POST", "/api/routes/analyze", strings.NewReader(""))
				return req
			},
			code: http.StatusBadRequest,
			msg:  "file",
		},
		{
			name: "not gpx",
			req:  func() *http.Request { return uploadRequest(t, "/api/routes/analyze", "hello") },
			code: http.StatusBadRequest,
			msg:  "invalid gpx",
		},
		{
			name: "no points",
			req:  func() *http.Request { return uploadRequest(t, "/api/routes/analyze", noPointsGPX) },
			code: http.StatusBadRequest,
			msg:  "no track or route points",
		},
		{
			name: "nan point",
			req:  func() *http.Request { return uploadRequest(t, "/api/routes/analyze", nanPointGPX) },
			code: http.StatusBadRequest,
			msg:  "invalid latitude or longitude",
		},
		{
			name: "nan point png",
			req:  func() *http.Request { return uploadRequest(t, "/api/routes/analyze.png", nanPointGPX) },
			code: http.StatusBadRequest,
			msg:  "invalid latitude or longitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req())

			if w.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.msg) {
				t.Errorf("expected error containing %q, got %s", tt.msg, w.Body.String())
			}
		})
	}
}

func TestAnalyze_UploadTooLarge(t *testing.T) {
	router := setupTestRouter(flatProvider(0), 64)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/routes/analyze", rightAngleGPX))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", w.Code)
	}
}

func TestAnalyzePNG(t *testing.T) {
	router := setupTestRouter(flatProvider(0), 1<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/routes/analyze.png", rightAngleGPX))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if _, err := png.Decode(w.Body); err != nil {
		t.Errorf("expected valid png: %v", err)
	}
}

func TestGetElevation(t *testing.T) {
	provider := elevation.ProviderFunc(func(ctx context.Context, lat, lon float64) (float64, error) {
		if lat > 0 {
			return 321.5, nil
		}
		return 0, elevation.ErrNotFound
	})
	router := setupTestRouter(provider, 1<<20)

	tests := []struct {
		name  string
		query string
		code  int
		found bool
		elev  float64
	}{
		{"found", "lat=10&lon=20", http.StatusOK, true, 321.5},
		{"not found", "lat=-10&lon=20", http.StatusOK, false, 0},
		{"invalid", "lat=100&lon=20", http.StatusBadRequest, false, 0},
		{"missing", "lat=10", http.StatusBadRequest, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/elevation?"+tt.query, nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Fatalf("expected status %d, got %d", tt.code, w.Code)
			}
			if tt.code != http.StatusOK {
				return
			}

			var resp elevationResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Found != tt.found {
				t.Errorf("expected found=%v, got %v", tt.found, resp.Found)
			}
			if tt.found && (resp.Elevation == nil || *resp.Elevation != tt.elev) {
				t.Errorf("expected elevation %v, got %v", tt.elev, resp.Elevation)
			}
			if !tt.found && resp.Elevation != nil {
				t.Errorf("expected null elevation, got %v", *resp.Elevation)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	router := setupTestRouter(flatProvider(0), 1<<20)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Route Risk Analyzer") {
		t.Error("expected embedded map page")
	}
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(flatProvider(0), 1<<20)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK {
		t.Errorf("expected first request allowed, got %d", codes[0])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected burst exhausted, got %v", codes)
	}
}
