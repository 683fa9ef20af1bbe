// Package sources contains the candidate source adapters: a community
// route API client and the local cached-route store, behind one contract.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

// CommunitySource searches a Strava-style community route API.
// Requests are budgeted with a rate limiter sized to the API's window quota
// (on the order of 100 requests per 15 minutes).
type CommunitySource struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// CommunityOption configures the CommunitySource
type CommunityOption func(*CommunitySource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) CommunityOption {
	return func(s *CommunitySource) {
		s.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) CommunityOption {
	return func(s *CommunitySource) {
		s.logger = logger
	}
}

// NewCommunitySource creates a community source from configuration.
// The access token is carried by an oauth2 token source so every request is
// authenticated the way the community API expects.
func NewCommunitySource(cfg *common.CommunityConfig, opts ...CommunityOption) (*CommunitySource, error) {
	window, err := time.ParseDuration(cfg.RateLimitWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid community rate limit window %q: %w", cfg.RateLimitWindow, err)
	}
	timeout := DefaultTimeout
	if cfg.Timeout != "" {
		if timeout, err = time.ParseDuration(cfg.Timeout); err != nil {
			return nil, fmt.Errorf("invalid community timeout %q: %w", cfg.Timeout, err)
		}
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Timeout = timeout

	s := &CommunitySource{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(window/time.Duration(cfg.RateLimitRequests)), cfg.RateLimitRequests),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Name identifies the source
func (s *CommunitySource) Name() string {
	return "community"
}

// communityRoute is the wire shape of a community search result
type communityRoute struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	StartLat       float64 `json:"start_lat"`
	StartLon       float64 `json:"start_lon"`
	EndLat         float64 `json:"end_lat"`
	EndLon         float64 `json:"end_lon"`
	IsLoop         bool    `json:"is_loop"`
	DistanceM      float64 `json:"distance"`
	ElevationGainM float64 `json:"elevation_gain"`
	StarCount      int     `json:"star_count"`
}

// communityRouteDetail is the wire shape of a route detail response
type communityRouteDetail struct {
	Polyline   string    `json:"polyline"`
	Elevations []float64 `json:"elevations"`
}

// Search returns community routes near center inside the distance band.
// "No results" is an empty slice; transport, auth and rate-limit failures
// wrap models.ErrSourceUnavailable.
func (s *CommunitySource) Search(ctx context.Context, center geo.Point, radiusKm float64, band interfaces.DistanceBand) ([]models.CandidateRoute, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", center.Lat))
	params.Set("lon", fmt.Sprintf("%.6f", center.Lon))
	params.Set("radius_km", fmt.Sprintf("%.1f", radiusKm))
	params.Set("min_distance_km", fmt.Sprintf("%.1f", band.MinKm))
	params.Set("max_distance_km", fmt.Sprintf("%.1f", band.MaxKm))

	var results []communityRoute
	if err := s.get(ctx, "/routes/explore", params, &results); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateRoute, 0, len(results))
	for _, r := range results {
		distanceKm := r.DistanceM / 1000
		if !band.Contains(distanceKm) {
			continue
		}
		candidates = append(candidates, models.CandidateRoute{
			ExternalID:     r.ID,
			SourceName:     s.Name(),
			Name:           r.Name,
			Start:          geo.Point{Lat: r.StartLat, Lon: r.StartLon},
			End:            geo.Point{Lat: r.EndLat, Lon: r.EndLon},
			IsLoop:         r.IsLoop,
			DistanceKm:     distanceKm,
			ElevationGainM: r.ElevationGainM,
			Popularity:     float64(r.StarCount),
		})
	}

	if s.logger != nil {
		s.logger.Debug().
			Int("results", len(candidates)).
			Float64("radius_km", radiusKm).
			Msg("Community route search completed")
	}

	return candidates, nil
}

// Detail fetches full geometry and elevation for a candidate
func (s *CommunitySource) Detail(ctx context.Context, externalID string) (geo.Path, error) {
	var detail communityRouteDetail
	if err := s.get(ctx, "/routes/"+url.PathEscape(externalID), nil, &detail); err != nil {
		return geo.Path{}, err
	}

	path, err := geo.DecodePolyline(detail.Polyline)
	if err != nil {
		return geo.Path{}, fmt.Errorf("%w: malformed geometry for route %s: %v", models.ErrSourceUnavailable, externalID, err)
	}

	// Splice elevations back onto the decoded coordinates
	if len(detail.Elevations) == path.Len() {
		points := path.Points()
		for i := range points {
			points[i].Elevation = detail.Elevations[i]
		}
		path = geo.NewPath(points)
	}

	return path, nil
}

// get performs a GET request against the community API
func (s *CommunitySource) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait aborted: %v", models.ErrSourceUnavailable, err)
	}

	reqURL := s.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: route not found", models.ErrSourceUnavailable)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", models.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: malformed response: %v", models.ErrSourceUnavailable, err)
	}
	return nil
}
