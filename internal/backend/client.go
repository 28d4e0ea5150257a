// Package backend is a client for the shelter CRUD API that owns the
// authoritative shelter records and user accounts.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/observability"
)

var ErrUnauthorized = errors.New("unauthorized")

const (
	pageSize = 100
	maxPages = 500
)

type listResponse struct {
	Success  bool             `json:"success"`
	Data     []models.Shelter `json:"data"`
	LastPage int              `json:"last_page"`
}

type shelterResponse struct {
	Success bool           `json:"success"`
	Data    models.Shelter `json:"data"`
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type meResponse struct {
	Success bool `json:"success"`
	Data    struct {
		User User `json:"user"`
	} `json:"data"`
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a client for baseURL (e.g. http://localhost:8000/api).
// token, when set, is sent as a bearer token on shelter requests.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// ListShelters fetches every shelter. It asks for the unpaginated listing
// first and walks the paginated one when that is unavailable.
func (c *Client) ListShelters(ctx context.Context) ([]models.Shelter, error) {
	ctx, span := observability.Tracer().Start(ctx, "backend.ListShelters")
	defer span.End()

	var all listResponse
	err := c.getJSON(ctx, "/baraks/all", c.token, &all)
	if err == nil && all.Success && all.Data != nil {
		span.SetAttributes(attribute.Int("shelters", len(all.Data)), attribute.Bool("paginated", false))
		return all.Data, nil
	}
	if err != nil {
		slog.Warn("unpaginated shelter listing failed, falling back to pages", "error", err)
	}

	shelters, err := c.listPaginated(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list shelters")
		return nil, err
	}
	span.SetAttributes(attribute.Int("shelters", len(shelters)), attribute.Bool("paginated", true))
	return shelters, nil
}

func (c *Client) listPaginated(ctx context.Context) ([]models.Shelter, error) {
	shelters := []models.Shelter{}
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("sort_by", "id")
		q.Set("order", "desc")
		q.Set("per_page", strconv.Itoa(pageSize))

		var resp listResponse
		if err := c.getJSON(ctx, "/baraks?"+q.Encode(), c.token, &resp); err != nil {
			return nil, fmt.Errorf("error fetching shelter page %d: %w", page, err)
		}
		shelters = append(shelters, resp.Data...)

		if resp.LastPage <= page || len(resp.Data) == 0 {
			return shelters, nil
		}
	}
	return nil, fmt.Errorf("shelter listing exceeds %d pages", maxPages)
}

// GetShelter fetches one shelter; a missing shelter returns nil.
func (c *Client) GetShelter(ctx context.Context, id int64) (*models.Shelter, error) {
	var resp shelterResponse
	err := c.getJSON(ctx, "/baraks/"+strconv.FormatInt(id, 10), c.token, &resp)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Me returns the account behind token, or ErrUnauthorized when the API
// rejects it.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	ctx, span := observability.Tracer().Start(ctx, "backend.Me")
	defer span.End()

	var resp meResponse
	err := c.getJSON(ctx, "/me", token, &resp)
	var se *statusError
	if errors.As(err, &se) && (se.code == http.StatusUnauthorized || se.code == http.StatusForbidden) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !resp.Success {
		return nil, ErrUnauthorized
	}
	return &resp.Data.User, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return nil
}
