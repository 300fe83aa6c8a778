package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/drive-alive/internal/config"
	"github.com/mr1hm/drive-alive/internal/elevation"
	"github.com/mr1hm/drive-alive/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "route-risk",
	Short: "Score driving routes for sharp turns and elevation change",
	Long: `route-risk analyses GPX routes and flags points where a sharp turn,
a steep elevation change, or both make the road risky.

Configuration is read from the environment (and a .env file) and can be
overridden with command-line flags.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("provider", "", "Elevation provider: srtm, openmeteo or none")
	rootCmd.PersistentFlags().String("srtm-dir", "", "Directory holding .hgt tiles")
	rootCmd.PersistentFlags().String("srtm-url-template", "", "Tile download URL with a {name} placeholder")
	rootCmd.PersistentFlags().String("cache-path", "", "SQLite file caching elevation lookups")
	rootCmd.PersistentFlags().Int("workers", 0, "Number of files analysed concurrently")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: json or text")
}

// loadConfig reads the environment, then applies any flags that were set.
// Logs go to stderr so stdout only carries results.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Elevation.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("srtm-dir") {
		cfg.Elevation.SRTMDir, _ = flags.GetString("srtm-dir")
	}
	if flags.Changed("srtm-url-template") {
		cfg.Elevation.SRTMURLTemplate, _ = flags.GetString("srtm-url-template")
	}
	if flags.Changed("cache-path") {
		cfg.Elevation.CachePath, _ = flags.GetString("cache-path")
	}
	if flags.Changed("workers") {
		cfg.Worker.Count, _ = flags.GetInt("workers")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("threshold") {
		cfg.Risk.Threshold, _ = flags.GetFloat64("threshold")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}

func openProvider(cfg *config.Config) (elevation.Provider, func() error, error) {
	provider, closeProvider, err := elevation.FromConfig(cfg.Elevation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create elevation provider: %w", err)
	}
	return provider, closeProvider, nil
}
