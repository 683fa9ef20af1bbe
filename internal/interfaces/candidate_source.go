package interfaces

import (
	"context"

	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/models"
)

// DistanceBand bounds candidate route length during search
type DistanceBand struct {
	MinKm float64
	MaxKm float64
}

// Contains reports whether a distance falls inside the band
func (b DistanceBand) Contains(km float64) bool {
	return km >= b.MinKm && km <= b.MaxKm
}

// CandidateSource is the uniform contract over heterogeneous route sources
// (community API, local cache). Search returns an empty slice for "no
// results"; adapter-level failures (timeout, auth, rate limit) wrap
// models.ErrSourceUnavailable so callers can tell the two apart.
type CandidateSource interface {
	// Name identifies the source in logs and candidate records
	Name() string

	// Search returns candidate routes near center whose distance falls in band
	Search(ctx context.Context, center geo.Point, radiusKm float64, band DistanceBand) ([]models.CandidateRoute, error)

	// Detail fetches the full geometry and elevation for a candidate
	Detail(ctx context.Context, externalID string) (geo.Path, error)
}
