package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthdesk/assistant/internal/app"
	"github.com/healthdesk/assistant/internal/locator"
)

// newPharmaciesCmd creates the pharmacies subcommand.
func newPharmaciesCmd() *cobra.Command {
	var (
		lat, lng float64
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "pharmacies",
		Short: "List pharmacies near a location",
		Long: `Pharmacies lists the closest pharmacies to --lat/--lng. Without a location the
demo list is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.LoadDirectory(cfg.Locator.DirectoryPath)
			if err != nil {
				return err
			}
			loc := locator.New(dir, logger, locator.Config{
				Delay:        cfg.Locator.Delay,
				Timeout:      cfg.Locator.Timeout,
				DefaultLimit: cfg.Locator.DefaultLimit,
			})

			var coords *locator.Coordinates
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				coords = &locator.Coordinates{Lat: lat, Lng: lng}
			}

			ui := newUI(cmd)
			spin := ui.NewSpinner("Finding pharmacies...")
			spin.Start()
			result := loc.Nearby(cmd.Context(), coords, limit)
			spin.Stop()

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			if result.Fallback {
				ui.Warning("Showing demo pharmacies (%s)", result.Reason)
			}
			rows := make([][]string, 0, len(result.Pharmacies))
			for _, p := range result.Pharmacies {
				distance := "-"
				if !result.Fallback {
					distance = fmt.Sprintf("%.1f km", p.DistanceKm)
				}
				rows = append(rows, []string{p.Name, p.Address, p.Phone, distance, hours(p)})
			}
			ui.Table([]string{"NAME", "ADDRESS", "PHONE", "DISTANCE", "HOURS"}, rows)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in decimal degrees")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default from config)")

	return cmd
}

func hours(p locator.Pharmacy) string {
	if p.Open24h {
		return "24h"
	}
	return "regular"
}
