package elevation

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type StoreConfig struct {
	Dir               string
	URLTemplate       string // e.g. "https://example.org/srtm/{name}.hgt.gz"; empty disables download
	HTTPClientTimeout time.Duration
	MaxMemTiles       int
}

// HGTStore serves elevations from SRTM .hgt tiles kept on disk, loading them
// lazily into a bounded in-memory cache. Safe for concurrent use.
type HGTStore struct {
	cfg    StoreConfig
	http   *http.Client
	mem    *lru.Cache[string, *hgtTile]
	loadMu sync.Mutex
}

func NewHGTStore(cfg StoreConfig) (*HGTStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("tile dir required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating tile dir: %w", err)
	}
	if cfg.MaxMemTiles <= 0 {
		cfg.MaxMemTiles = 16
	}
	if cfg.HTTPClientTimeout <= 0 {
		cfg.HTTPClientTimeout = 30 * time.Second
	}

	mem, err := lru.New[string, *hgtTile](cfg.MaxMemTiles)
	if err != nil {
		return nil, fmt.Errorf("error creating tile cache: %w", err)
	}

	return &HGTStore{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPClientTimeout},
		mem:  mem,
	}, nil
}

func (s *HGTStore) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	if !validCoordinate(lat, lon) {
		return 0, ErrNotFound
	}

	tile := s.tile(ctx, tileNameFor(lat, lon))
	if tile == nil {
		return 0, ErrNotFound
	}

	h, ok := tile.heightAt(lat, lon)
	if !ok {
		return 0, ErrNotFound
	}
	return h, nil
}

// tile returns the tile covering name, or nil when it is absent or failed to load.
// Absent and failed tiles are remembered so a route does not retry them per point.
// Loads cut short by ctx are not remembered.
func (s *HGTStore) tile(ctx context.Context, name TileName) *hgtTile {
	key := name.FileStem()
	if t, ok := s.mem.Get(key); ok {
		return t
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if t, ok := s.mem.Get(key); ok {
		return t
	}

	t, err := s.loadFromDisk(name)
	if errors.Is(err, fs.ErrNotExist) && s.cfg.URLTemplate != "" {
		t, err = s.download(ctx, name)
	}
	switch {
	case err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		// The caller gave up; the tile itself may be fine.
		slog.Debug("elevation tile load abandoned", "tile", key, "error", err)
		return nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ErrNotFound):
		slog.Debug("no elevation tile", "tile", key)
		t = nil
	case err != nil:
		slog.Warn("elevation tile unavailable", "tile", key, "error", err)
		t = nil
	default:
		slog.Debug("elevation tile loaded", "tile", key, "size", t.size)
	}

	s.mem.Add(key, t)
	return t
}

func (s *HGTStore) path(name TileName) string {
	return filepath.Join(s.cfg.Dir, name.FileStem()+".hgt")
}

func (s *HGTStore) loadFromDisk(name TileName) (*hgtTile, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, err
	}
	return parseHGT(raw, name)
}

func (s *HGTStore) download(ctx context.Context, name TileName) (*hgtTile, error) {
	url := strings.ReplaceAll(s.cfg.URLTemplate, "{name}", name.FileStem())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - url: %s", resp.StatusCode, url)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip tile: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("error reading tile: %w", err)
	}

	t, err := parseHGT(raw, name)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(s.path(name), raw); err != nil {
		return nil, fmt.Errorf("error saving tile: %w", err)
	}
	slog.Info("elevation tile downloaded", "tile", name.FileStem(), "bytes", len(raw))
	return t, nil
}

func writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tile-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
