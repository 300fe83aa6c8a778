package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Risk      RiskConfig
	Elevation ElevationConfig
	Worker    WorkerConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	RateLimitRPS   int
	UploadMaxBytes int64
}

type RiskConfig struct {
	Threshold        float64
	DefaultElevation float64
}

type ElevationConfig struct {
	Provider        string // srtm, openmeteo, none
	SRTMDir         string
	SRTMURLTemplate string
	SRTMMaxTiles    int
	OpenMeteoURL    string
	Timeout         time.Duration
	CachePath       string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	ProviderSRTM      = "srtm"
	ProviderOpenMeteo = "openmeteo"
	ProviderNone      = "none"
)

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
			UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 20<<20)),
		},
		Risk: RiskConfig{
			Threshold:        getEnvFloat("RISK_THRESHOLD", 40),
			DefaultElevation: getEnvFloat("ELEVATION_DEFAULT", 0),
		},
		Elevation: ElevationConfig{
			Provider:        getEnv("ELEVATION_PROVIDER", ProviderSRTM),
			SRTMDir:         getEnv("SRTM_DIR", "./data/srtm"),
			SRTMURLTemplate: getEnv("SRTM_URL_TEMPLATE", ""),
			SRTMMaxTiles:    getEnvInt("SRTM_MAX_TILES", 16),
			OpenMeteoURL:    getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1/elevation"),
			Timeout:         getEnvDuration("ELEVATION_TIMEOUT", 15*time.Second),
			CachePath:       getEnv("ELEVATION_CACHE_PATH", ""),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate is exported so the CLI can re-check after applying flag overrides.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s")
	}
	if c.Server.UploadMaxBytes < 1 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if math.IsNaN(c.Risk.Threshold) || math.IsInf(c.Risk.Threshold, 0) {
		return fmt.Errorf("invalid risk threshold: %v", c.Risk.Threshold)
	}
	if math.IsNaN(c.Risk.DefaultElevation) || math.IsInf(c.Risk.DefaultElevation, 0) {
		return fmt.Errorf("invalid default elevation: %v", c.Risk.DefaultElevation)
	}

	switch c.Elevation.Provider {
	case ProviderSRTM:
		if c.Elevation.SRTMDir == "" {
			return fmt.Errorf("SRTM_DIR is required for the srtm provider")
		}
	case ProviderOpenMeteo, ProviderNone:
	default:
		return fmt.Errorf("invalid elevation provider: %s", c.Elevation.Provider)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
