package main

import (
	"context"
	"encoding/json"
	"errors"
	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/app"
	"ev-route-service/internal/config"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/logging"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-polyline"
)

type planFlags struct {
	from, to             string
	fromCoords, toCoords string
	vehicle              string
	output               string
	showPolyline         bool
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.SetupWithWriter(cfg.Env, zerolog.ConsoleWriter{Out: os.Stderr})
	ctx := logger.WithContext(context.Background())

	var f planFlags

	rootCmd := &cobra.Command{
		Use:   "evplan",
		Short: "Plan an EV route with charging stops",
		Long: `Plans a driving route for an electric vehicle and inserts charging stops
so that no leg exceeds the vehicle's worst-case range. Endpoints are given as
place names (--from/--to) or as "lat,lon" pairs (--from-coords/--to-coords).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd.OutOrStdout(), cfg, f)
		},
	}

	rootCmd.Flags().StringVar(&f.from, "from", "", "Origin place name")
	rootCmd.Flags().StringVar(&f.to, "to", "", "Destination place name")
	rootCmd.Flags().StringVar(&f.fromCoords, "from-coords", "", `Origin as "lat,lon"`)
	rootCmd.Flags().StringVar(&f.toCoords, "to-coords", "", `Destination as "lat,lon"`)
	rootCmd.Flags().StringVarP(&f.vehicle, "vehicle", "v", "", "Vehicle id from the catalog")
	rootCmd.Flags().StringVarP(&f.output, "output", "o", "text", "Output format (text or json)")
	rootCmd.Flags().BoolVar(&f.showPolyline, "polyline", false, "Print the route as an encoded polyline")
	_ = rootCmd.MarkFlagRequired("vehicle")

	rootCmd.AddCommand(vehiclesCmd(cfg))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// vehiclesCmd lists the catalog.
func vehiclesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			vs, err := a.Catalog.ListVehicles(cmd.Context())
			if err != nil {
				return fmt.Errorf("list vehicles: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, v := range vs {
				fmt.Fprintf(out, "%-28s %-36s worst %4.0f km  best %4.0f km\n",
					v.ID, v.DisplayName(), v.WorstRangeKm, v.BestRangeKm)
			}
			return nil
		},
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.Build(ctx, cfg)
}

func runPlan(ctx context.Context, out io.Writer, cfg *config.Config, f planFlags) error {
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("unknown output format %q", f.output)
	}

	byPlace := f.from != "" || f.to != ""
	byCoords := f.fromCoords != "" || f.toCoords != ""
	if byPlace == byCoords {
		return errors.New("give either --from/--to or --from-coords/--to-coords")
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var plan *domain.RoutePlan
	if byPlace {
		if f.from == "" || f.to == "" {
			return errors.New("--from and --to are both required")
		}
		plan, err = a.Planner.PlanChargingRouteByPlace(ctx, f.from, f.to, f.vehicle)
	} else {
		origin, perr := parseCoords(f.fromCoords)
		if perr != nil {
			return fmt.Errorf("--from-coords: %w", perr)
		}
		destination, perr := parseCoords(f.toCoords)
		if perr != nil {
			return fmt.Errorf("--to-coords: %w", perr)
		}
		plan, err = a.Planner.PlanChargingRoute(ctx, origin, destination, f.vehicle)
	}
	if err != nil {
		return err
	}

	if f.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.NewPlanResponse(plan))
	}

	printPlan(out, plan, f.showPolyline)
	return nil
}

// parseCoords reads "lat,lon".
func parseCoords(s string) (domain.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Coordinates{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("longitude: %w", err)
	}

	c := domain.Coordinates{Lat: lat, Lon: lon}
	return c, c.Validate()
}

func printPlan(out io.Writer, plan *domain.RoutePlan, showPolyline bool) {
	fmt.Fprintf(out, "Vehicle:      %s\n", plan.Vehicle.VehicleID)
	fmt.Fprintf(out, "Distance:     %s\n", domain.FormatDistanceKm(plan.TotalDistanceKm))
	fmt.Fprintf(out, "Travel time:  %s\n", plan.TravelTime())
	fmt.Fprintf(out, "Stops:        %d\n", len(plan.Stops))

	for i, s := range plan.Stops {
		fmt.Fprintf(out, "  %d. %s (%s)", i+1, s.Name, s.Location)
		if s.PowerKW > 0 {
			fmt.Fprintf(out, " %.0f kW", s.PowerKW)
		}
		fmt.Fprintln(out)
	}

	if plan.Degraded {
		fmt.Fprintf(out, "Warning:      %d charging stop(s) could not be resolved\n", plan.MissedStops)
	}

	if showPolyline {
		coords := make([][]float64, 0, plan.Polyline.Len())
		for _, c := range plan.Polyline.Points() {
			coords = append(coords, c.LatLon())
		}
		fmt.Fprintf(out, "Polyline:     %s\n", polyline.EncodeCoords(coords))
	}
}
