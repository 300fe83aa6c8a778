package elevation

import (
	"fmt"
	"log/slog"

	"github.com/mr1hm/drive-alive/internal/config"
	"github.com/mr1hm/drive-alive/internal/repository"
)

// FromConfig builds the configured provider, wrapped in the SQLite cache when a
// cache path is set. The returned close func releases the cache database.
func FromConfig(cfg config.ElevationConfig) (Provider, func() error, error) {
	noop := func() error { return nil }

	var p Provider
	switch cfg.Provider {
	case config.ProviderSRTM:
		store, err := NewHGTStore(StoreConfig{
			Dir:               cfg.SRTMDir,
			URLTemplate:       cfg.SRTMURLTemplate,
			HTTPClientTimeout: cfg.Timeout,
			MaxMemTiles:       cfg.SRTMMaxTiles,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("error creating srtm store: %w", err)
		}
		p = store
	case config.ProviderOpenMeteo:
		p = NewOpenMeteoClient(cfg.OpenMeteoURL, cfg.Timeout)
	case config.ProviderNone:
		slog.Warn("elevation provider disabled, every point uses the default elevation")
		return None{}, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown elevation provider: %s", cfg.Provider)
	}

	if cfg.CachePath == "" {
		return p, noop, nil
	}

	db, err := repository.NewSQLiteDB(cfg.CachePath)
	if err != nil {
		return nil, noop, fmt.Errorf("error opening elevation cache: %w", err)
	}
	slog.Info("elevation cache enabled", "path", cfg.CachePath, "provider", cfg.Provider)

	return NewCachedProvider(p, db, cfg.Provider), db.Close, nil
}
