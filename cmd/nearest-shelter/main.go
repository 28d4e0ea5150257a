// Command nearest-shelter prints the closest evacuation shelter to a point,
// its volcanic risk and the driving route to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mr1hm/siaga-merapi/internal/backend"
	"github.com/mr1hm/siaga-merapi/internal/config"
	internalgrpc "github.com/mr1hm/siaga-merapi/internal/grpc"
	"github.com/mr1hm/siaga-merapi/internal/logging"
	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/routing"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

func main() {
	lat := flag.Float64("lat", 0, "latitude of the starting point")
	lng := flag.Float64("lng", 0, "longitude of the starting point")
	server := flag.String("server", "", "gRPC address of a running siaga-merapi service; empty queries the CRUD API directly")
	noRoute := flag.Bool("no-route", false, "skip the driving route")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	user := models.Coordinates{Latitude: *lat, Longitude: *lng}
	if !user.Valid() || (*lat == 0 && *lng == 0) {
		fmt.Fprintln(os.Stderr, "usage: nearest-shelter -lat <lat> -lng <lng>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout+cfg.Routing.Timeout)
	defer cancel()

	var nearest spatial.NearestResult
	if *server != "" {
		nearest, err = nearestFromService(ctx, *server, user)
	} else {
		nearest, err = nearestFromBackend(ctx, cfg, user)
	}
	if err != nil {
		logging.Fatalf("Failed to find nearest shelter: %v", err)
	}

	s := nearest.Shelter
	loc, _ := s.Location()
	risk := spatial.RiskOf(loc, spatial.HazardSource())

	fmt.Printf("Shelter:   %s (#%d)\n", s.Name, s.ID)
	fmt.Printf("Address:   %s, %s, %s\n", s.Address, s.SubRegion, s.Region)
	fmt.Printf("Type:      %s, capacity %d\n", s.Type(), s.CapacityValue())
	fmt.Printf("Distance:  %.2f km straight line\n", nearest.DistanceKm)
	fmt.Printf("Risk:      %s (score %.1f, %.2f km from Merapi)\n", risk.RiskTier, risk.RiskScore, risk.DistanceKm)

	if *noRoute {
		return
	}

	osrm := routing.NewOSRMClient(cfg.Routing.URL, cfg.Routing.Timeout)
	route, err := osrm.Route(ctx, user, loc)
	if err != nil {
		slog.Debug("route fetch failed", "error", err, "kind", routing.Kind(err))
		fmt.Printf("Route:     %s\n", routing.UserMessage(err))
		os.Exit(1)
	}

	fmt.Printf("Route:     %.2f km, about %d min\n", route.DistanceKm, route.DurationMinutes)
	for i, step := range route.Instructions {
		fmt.Printf("  %2d. %s (%.0f m)\n", i+1, step.Text, step.DistanceM)
	}
}

func nearestFromBackend(ctx context.Context, cfg *config.Config, user models.Coordinates) (spatial.NearestResult, error) {
	crud := backend.NewClient(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
	shelters, err := crud.ListShelters(ctx)
	if err != nil {
		return spatial.NearestResult{}, err
	}

	nearest, ok := spatial.Nearest(&user, shelters)
	if !ok {
		return spatial.NearestResult{}, fmt.Errorf("none of %d shelters has valid coordinates", len(shelters))
	}
	return nearest, nil
}

func nearestFromService(ctx context.Context, addr string, user models.Coordinates) (spatial.NearestResult, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return spatial.NearestResult{}, err
	}
	defer conn.Close()

	client := internalgrpc.NewClient(conn)
	resp, err := client.FindNearestShelter(ctx, user.Latitude, user.Longitude)
	if err != nil {
		return spatial.NearestResult{}, err
	}

	if st, err := client.GetStatus(ctx); err == nil {
		fmt.Printf("Status:    %s (updated %s)\n", st.Label, time.Unix(st.UpdatedAt, 0).Format(time.RFC1123))
	}
	return spatial.NearestResult{Shelter: resp.Shelter, DistanceKm: resp.DistanceKm}, nil
}
