package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/observability"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Distance float64   `json:"distance"` // metres
	Duration float64   `json:"duration"` // seconds
	Legs     []osrmLeg `json:"legs"`
}

type osrmLeg struct {
	Steps []osrmStep `json:"steps"`
}

type osrmStep struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Maneuver struct {
		Type        string `json:"type"`
		Modifier    string `json:"modifier"`
		Instruction string `json:"instruction"`
	} `json:"maneuver"`
}

// OSRMClient talks to an OSRM compatible routing service.
type OSRMClient struct {
	baseURL string
	client  *http.Client
}

func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *OSRMClient) Route(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "routing.osrm.Route")
	defer span.End()
	span.SetAttributes(attribute.String("route.key", RequestKey(start, end)))

	begin := time.Now()
	res, err := c.route(ctx, start, end)
	observability.RouteFetchDurationMs.Observe(float64(time.Since(begin).Milliseconds()))

	switch {
	case err == nil:
		observability.RouteFetchesTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, context.Canceled):
		observability.RouteFetchesTotal.WithLabelValues("cancelled").Inc()
	default:
		observability.RouteFetchesTotal.WithLabelValues(Kind(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
	}
	return res, err
}

func (c *OSRMClient) route(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
	if err := ValidatePair(start, end); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=geojson&steps=true",
		c.baseURL,
		formatCoord(start.Longitude), formatCoord(start.Latitude),
		formatCoord(end.Longitude), formatCoord(end.Latitude),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	var data osrmResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&data)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil {
			if err := codeError(data); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrConnectivity, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: error decoding response: %v", ErrConnectivity, decodeErr)
	}
	if err := codeError(data); err != nil {
		return nil, err
	}
	if len(data.Routes) == 0 {
		return nil, ErrNoRoute
	}

	return toResult(data.Routes[0])
}

// codeError maps a non-Ok OSRM status code onto the error taxonomy.
func codeError(data osrmResponse) error {
	switch data.Code {
	case "Ok":
		return nil
	case "NoRoute", "NoSegment":
		return fmt.Errorf("%w: %s", ErrNoRoute, data.Message)
	case "InvalidInput", "InvalidValue", "InvalidQuery":
		return fmt.Errorf("%w: %s", ErrInvalidCoordinates, data.Message)
	default:
		return fmt.Errorf("%w: routing error %q: %s", ErrConnectivity, data.Code, data.Message)
	}
}

func toResult(r osrmRoute) (*RouteResult, error) {
	if len(r.Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("%w: invalid route data received", ErrConnectivity)
	}

	coords := make([]models.Coordinates, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("%w: malformed route coordinate", ErrConnectivity)
		}
		coords = append(coords, models.Coordinates{Latitude: c[1], Longitude: c[0]})
	}

	instructions := []Instruction{}
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			instructions = append(instructions, Instruction{
				Text:         instructionText(step),
				DistanceM:    step.Distance,
				DurationS:    step.Duration,
				ManeuverType: step.Maneuver.Type,
			})
		}
	}

	bounds, _ := spatial.BoundingBox(coords)
	return &RouteResult{
		Coordinates:     coords,
		DistanceKm:      r.Distance / 1000,
		DurationMinutes: int(math.Round(r.Duration / 60)),
		Instructions:    instructions,
		Bounds:          bounds,
	}, nil
}

// instructionText prefers the service-provided text and otherwise builds one
// from the maneuver, e.g. "turn left onto Jalan Kaliurang".
func instructionText(s osrmStep) string {
	if s.Maneuver.Instruction != "" {
		return s.Maneuver.Instruction
	}
	parts := []string{s.Maneuver.Type}
	if s.Maneuver.Modifier != "" {
		parts = append(parts, s.Maneuver.Modifier)
	}
	if s.Name != "" {
		parts = append(parts, "onto", s.Name)
	}
	return strings.Join(parts, " ")
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
