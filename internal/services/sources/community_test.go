package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

func communityConfig(baseURL string) *common.CommunityConfig {
	return &common.CommunityConfig{
		BaseURL:           baseURL,
		AccessToken:       "test-token",
		RateLimitRequests: 100,
		RateLimitWindow:   "15m",
	}
}

func newCommunitySource(t *testing.T, baseURL string) *CommunitySource {
	t.Helper()
	source, err := NewCommunitySource(communityConfig(baseURL), WithLogger(arbor.NewLogger()))
	if err != nil {
		t.Fatalf("NewCommunitySource failed: %v", err)
	}
	return source
}

func TestCommunitySearch(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/routes/explore" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery

		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"id": "rt_100", "name": "Lakeside loop",
				"start_lat": 47.01, "start_lon": 8.01,
				"end_lat": 47.01, "end_lon": 8.01,
				"is_loop": true, "distance": 40000.0,
				"elevation_gain": 320.0, "star_count": 57,
			},
			{
				// Outside the band even though the API returned it
				"id": "rt_200", "name": "Century", "distance": 160000.0,
			},
		})
	}))
	defer server.Close()

	source := newCommunitySource(t, server.URL)
	band := interfaces.DistanceBand{MinKm: 35, MaxKm: 45}

	candidates, err := source.Search(context.Background(), geo.Point{Lat: 47, Lon: 8}, 25, band)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	for _, want := range []string{"lat=47.000000", "radius_km=25.0", "min_distance_km=35.0", "max_distance_km=45.0"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("Query %q missing %q", gotQuery, want)
		}
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate after band filtering, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ExternalID != "rt_100" || c.SourceName != "community" {
		t.Errorf("Candidate identity wrong: %+v", c)
	}
	if c.DistanceKm != 40 {
		t.Errorf("DistanceKm = %v, want 40", c.DistanceKm)
	}
	if !c.IsLoop || c.Popularity != 57 {
		t.Errorf("Candidate attributes wrong: %+v", c)
	}
}

func TestCommunitySearch_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	}))
	defer server.Close()

	source := newCommunitySource(t, server.URL)
	candidates, err := source.Search(context.Background(), geo.Point{Lat: 47, Lon: 8}, 25, interfaces.DistanceBand{MinKm: 35, MaxKm: 45})
	if err != nil {
		t.Fatalf("Empty result should not be an error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(candidates))
	}
}

func TestCommunitySearch_ServerErrorIsUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", http.StatusTooManyRequests},
		{"auth rejected", http.StatusUnauthorized},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			source := newCommunitySource(t, server.URL)
			_, err := source.Search(context.Background(), geo.Point{Lat: 47, Lon: 8}, 25, interfaces.DistanceBand{MinKm: 35, MaxKm: 45})
			if !errors.Is(err, models.ErrSourceUnavailable) {
				t.Errorf("Expected ErrSourceUnavailable, got %v", err)
			}
		})
	}
}

func TestCommunitySearch_UnreachableHost(t *testing.T) {
	source := newCommunitySource(t, "http://127.0.0.1:1")
	_, err := source.Search(context.Background(), geo.Point{Lat: 47, Lon: 8}, 25, interfaces.DistanceBand{MinKm: 35, MaxKm: 45})
	if !errors.Is(err, models.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestCommunityDetail(t *testing.T) {
	original := geo.NewPath([]geo.Point{
		{Lat: 47.0, Lon: 8.0},
		{Lat: 47.01, Lon: 8.0},
		{Lat: 47.02, Lon: 8.0},
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/routes/rt_100" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"polyline":   geo.EncodePolyline(original),
			"elevations": []float64{400, 410, 405},
		})
	}))
	defer server.Close()

	source := newCommunitySource(t, server.URL)
	path, err := source.Detail(context.Background(), "rt_100")
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}

	if path.Len() != 3 {
		t.Fatalf("Expected 3 points, got %d", path.Len())
	}
	points := path.Points()
	if points[1].Elevation != 410 {
		t.Errorf("Elevations not spliced: %v", points[1].Elevation)
	}
	if points[2].Lat < 47.019 || points[2].Lat > 47.021 {
		t.Errorf("Decoded latitude = %v", points[2].Lat)
	}
}

func TestCommunityDetail_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := newCommunitySource(t, server.URL)
	_, err := source.Detail(context.Background(), "rt_missing")
	if !errors.Is(err, models.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestNewCommunitySource_RejectsBadWindow(t *testing.T) {
	cfg := communityConfig("http://example.invalid")
	cfg.RateLimitWindow = "often"
	if _, err := NewCommunitySource(cfg); err == nil {
		t.Error("Invalid rate limit window should be rejected")
	}
}
