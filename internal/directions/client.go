// Package directions is the client for the external route provider. The
// provider is treated as unreliable: network errors, timeouts and empty
// route lists are expected outcomes, not crashes.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/paulmach/orb"

	"worldlink/internal/util"
)

// ErrNoRoute is returned when the provider answers successfully but finds
// no route between the two points.
var ErrNoRoute = errors.New("directions: no route found")

// Result is a decoded directions response.
type Result struct {
	Points          []orb.Point
	DistanceMeters  float64
	DurationSeconds float64
}

// Client talks to an OSRM-shaped directions endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a directions client for the given base URL. The
// http.Client's timeout bounds each request; callers additionally pass a
// context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// osrmResponse mirrors the subset of the provider response the core needs.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route requests a route between two geographic points for the given
// profile ("walking" or "driving"). The first returned route is used.
func (c *Client) Route(ctx context.Context, start, end orb.Point, profile string) (*Result, error) {
	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f",
		c.baseURL, url.PathEscape(profile),
		start.Lon(), start.Lat(), end.Lon(), end.Lat())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("directions: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("overview", "full")
	q.Set("geometries", "polyline")
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: provider returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("directions: decode response: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, ErrNoRoute
	}

	r := body.Routes[0]
	points := util.DecodePolyline(r.Geometry)
	if len(points) == 0 {
		return nil, ErrNoRoute
	}

	return &Result{
		Points:          points,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, nil
}
