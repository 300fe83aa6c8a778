package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mr1hm/drive-alive/internal/elevation"
)

// elevationCmd represents the elevation command
var elevationCmd = &cobra.Command{
	Use:   "elevation",
	Short: "Look up terrain elevation at a location",
	Long: `Look up the elevation the configured provider returns for one coordinate.

Examples:
  route-risk elevation --lat 37.5 --lon 144.5
  route-risk elevation --lat 46.55 --lon 7.98 --provider openmeteo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude must be between -90 and 90")
		}
		if lon < -180 || lon > 180 {
			return fmt.Errorf("longitude must be between -180 and 180")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		provider, closeProvider, err := openProvider(cfg)
		if err != nil {
			return err
		}
		defer closeProvider()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Elevation.Timeout)
		defer cancel()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Location: %.6f, %.6f\n", lat, lon)
		fmt.Fprintf(out, "Provider: %s\n", cfg.Elevation.Provider)

		v, err := provider.Elevation(ctx, lat, lon)
		switch {
		case errors.Is(err, elevation.ErrNotFound):
			fmt.Fprintf(out, "Elevation: not found (routes use %.2f meters)\n", cfg.Risk.DefaultElevation)
		case err != nil:
			return fmt.Errorf("failed to get elevation: %w", err)
		default:
			fmt.Fprintf(out, "Elevation: %.2f meters\n", v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(elevationCmd)

	elevationCmd.Flags().Float64("lat", 0, "Latitude (required)")
	elevationCmd.Flags().Float64("lon", 0, "Longitude (required)")
	elevationCmd.MarkFlagRequired("lat")
	elevationCmd.MarkFlagRequired("lon")
}
