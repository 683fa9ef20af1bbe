package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

// LocalSource serves candidates from the local cached-route store. It keeps
// candidate search working when the community API is down or rate limited.
type LocalSource struct {
	storage interfaces.CachedRouteStorage
	logger  arbor.ILogger
}

// NewLocalSource creates a local cache source over storage
func NewLocalSource(storage interfaces.CachedRouteStorage, logger arbor.ILogger) *LocalSource {
	return &LocalSource{
		storage: storage,
		logger:  logger,
	}
}

// Name identifies the source
func (s *LocalSource) Name() string {
	return "local"
}

// Search queries the cache with a bounding box around center and narrows the
// results by true start distance and the distance band.
func (s *LocalSource) Search(ctx context.Context, center geo.Point, radiusKm float64, band interfaces.DistanceBand) ([]models.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	// Degrees spanned by the radius; longitude shrinks with latitude.
	latDelta := radiusKm / 111.0
	lonDelta := latDelta
	if cosLat := math.Cos(center.Lat * math.Pi / 180); cosLat > 0.01 {
		lonDelta = latDelta / cosLat
	}

	cached, err := s.storage.FindNear(center.Lat-latDelta, center.Lat+latDelta, center.Lon-lonDelta, center.Lon+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	var candidates []models.CandidateRoute
	for _, route := range cached {
		if !band.Contains(route.DistanceKm) {
			continue
		}
		start := geo.Point{Lat: route.StartLat, Lon: route.StartLon}
		if geo.HaversineKm(center, start) > radiusKm {
			continue
		}
		candidates = append(candidates, route.Candidate())
	}

	if s.logger != nil {
		s.logger.Debug().
			Int("results", len(candidates)).
			Float64("radius_km", radiusKm).
			Msg("Local route cache search completed")
	}

	return candidates, nil
}

// Detail returns the stored geometry for a cached route
func (s *LocalSource) Detail(ctx context.Context, externalID string) (geo.Path, error) {
	if err := ctx.Err(); err != nil {
		return geo.Path{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	route, err := s.storage.GetCachedRoute(externalID)
	if err != nil {
		return geo.Path{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	path, err := geo.UnmarshalGeoJSON(route.Geometry)
	if err != nil {
		return geo.Path{}, fmt.Errorf("%w: corrupt cached geometry for %s: %v", models.ErrSourceUnavailable, externalID, err)
	}
	return path, nil
}
