// Package routing wraps the point-to-point routing engine behind the
// Router contract, with preference mapping and bounded retry.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/models"
)

// Engine is a GraphHopper-style routing API client
type Engine struct {
	baseURL    string
	apiKey     string
	profile    string
	httpClient *http.Client
	logger     arbor.ILogger
	maxRetries int
	retryDelay time.Duration
}

// NewEngine creates a routing engine client from configuration
func NewEngine(cfg *common.RouterConfig, logger arbor.ILogger) (*Engine, error) {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid router timeout %q: %w", cfg.Timeout, err)
		}
		timeout = parsed
	}

	retryDelay := time.Second
	if cfg.RetryDelay != "" {
		parsed, err := time.ParseDuration(cfg.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid router retry delay %q: %w", cfg.RetryDelay, err)
		}
		retryDelay = parsed
	}

	profile := cfg.Profile
	if profile == "" {
		profile = "bike"
	}

	return &Engine{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		profile:    profile,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
	}, nil
}

// routeRequest is the engine's request payload
type routeRequest struct {
	Points        [][]float64            `json:"points"` // [lon, lat]
	Profile       string                 `json:"profile"`
	Elevation     bool                   `json:"elevation"`
	PointsEncoded bool                   `json:"points_encoded"`
	Algorithm     string                 `json:"algorithm,omitempty"`
	RoundTrip     *roundTripParams       `json:"round_trip,omitempty"`
	CustomModel   map[string]interface{} `json:"custom_model,omitempty"`
}

type roundTripParams struct {
	DistanceM float64 `json:"distance"`
	Seed      int64   `json:"seed"`
}

// routeResponse is the engine's response payload
type routeResponse struct {
	Paths []struct {
		DistanceM float64 `json:"distance"`
		AscendM   float64 `json:"ascend"`
		Points    struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat, ele]
		} `json:"points"`
	} `json:"paths"`
	Message string `json:"message"`
}

// RouteBetween produces a single path between two coordinates
func (e *Engine) RouteBetween(ctx context.Context, from, to geo.Point, prefs *models.UserRoutingPreferences) (geo.Path, error) {
	req := routeRequest{
		Points:        [][]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
		Profile:       e.profile,
		Elevation:     true,
		PointsEncoded: false,
		CustomModel:   preferenceModel(prefs),
	}
	return e.route(ctx, req)
}

// RouteFromStart produces a full loop of roughly targetKm from start.
// Used for synthetic generation when no suitable candidate exists.
func (e *Engine) RouteFromStart(ctx context.Context, start geo.Point, targetKm float64, prefs *models.UserRoutingPreferences) (geo.Path, error) {
	req := routeRequest{
		Points:        [][]float64{{start.Lon, start.Lat}},
		Profile:       e.profile,
		Elevation:     true,
		PointsEncoded: false,
		Algorithm:     "round_trip",
		RoundTrip: &roundTripParams{
			DistanceM: targetKm * 1000,
			Seed:      1, // Fixed seed keeps regeneration deterministic for the same inputs
		},
		CustomModel: preferenceModel(prefs),
	}
	return e.route(ctx, req)
}

// preferenceModel maps user routing constraints to engine parameters
func preferenceModel(prefs *models.UserRoutingPreferences) map[string]interface{} {
	if prefs == nil {
		return nil
	}

	var priority []map[string]interface{}
	if prefs.AvoidHighways {
		priority = append(priority, map[string]interface{}{
			"if": "road_class == MOTORWAY || road_class == TRUNK", "multiply_by": "0",
		})
	}
	if prefs.PreferBikePaths {
		priority = append(priority, map[string]interface{}{
			"if": "road_class == CYCLEWAY", "multiply_by": "1.5",
		})
	}
	if prefs.AvoidHighTraffic {
		priority = append(priority, map[string]interface{}{
			"if": "road_class == PRIMARY", "multiply_by": "0.5",
		})
	}
	if prefs.MaxGradePercent > 0 {
		priority = append(priority, map[string]interface{}{
			"if": fmt.Sprintf("average_slope >= %.0f", prefs.MaxGradePercent), "multiply_by": "0",
		})
	}

	if len(priority) == 0 {
		return nil
	}
	return map[string]interface{}{"priority": priority}
}

// route executes a routing request with bounded exponential backoff.
// Transient failures are retried maxRetries times (delays double from
// retryDelay); a missing path is never retried.
func (e *Engine) route(ctx context.Context, req routeRequest) (geo.Path, error) {
	var lastErr error
	delay := e.retryDelay

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		path, err := e.routeOnce(ctx, req)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, models.ErrNoPathFound) {
			return geo.Path{}, err
		}
		lastErr = err

		if e.logger != nil {
			e.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", e.maxRetries).
				Msg("Routing request failed")
		}

		if attempt == e.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return geo.Path{}, fmt.Errorf("%w: %v", models.ErrRoutingUnavailable, ctx.Err())
		case <-time.After(delay):
			delay *= 2
		}
	}

	return geo.Path{}, fmt.Errorf("%w: %d attempts exhausted: %v", models.ErrRoutingUnavailable, e.maxRetries, lastErr)
}

func (e *Engine) routeOnce(ctx context.Context, req routeRequest) (geo.Path, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return geo.Path{}, fmt.Errorf("failed to marshal routing request: %w", err)
	}

	reqURL := e.baseURL + "/route"
	if e.apiKey != "" {
		reqURL += "?key=" + e.apiKey
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return geo.Path{}, fmt.Errorf("failed to create routing request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return geo.Path{}, fmt.Errorf("routing request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.Path{}, fmt.Errorf("failed to read routing response: %w", err)
	}

	var decoded routeResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(respBody, &decoded)
		// The engine reports an impossible route as a client error
		if resp.StatusCode == http.StatusBadRequest && decoded.Message != "" {
			return geo.Path{}, fmt.Errorf("%w: %s", models.ErrNoPathFound, decoded.Message)
		}
		return geo.Path{}, fmt.Errorf("routing engine status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return geo.Path{}, fmt.Errorf("malformed routing response: %w", err)
	}
	if len(decoded.Paths) == 0 {
		return geo.Path{}, models.ErrNoPathFound
	}

	coords := decoded.Paths[0].Points.Coordinates
	points := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		pt := geo.Point{Lon: c[0], Lat: c[1]}
		if len(c) > 2 {
			pt.Elevation = c[2]
		}
		points = append(points, pt)
	}
	if len(points) == 0 {
		return geo.Path{}, models.ErrNoPathFound
	}

	return geo.NewPath(points), nil
}
