package models

import (
	"time"

	"github.com/ternarybob/veloroute/internal/geo"
)

// CachedRoute is a community route stored in the local route cache so that
// candidate search keeps working when the community API is unavailable.
// Start coordinates are kept flat for indexable range queries.
type CachedRoute struct {
	ID             string  `json:"id" badgerhold:"key"`
	Name           string  `json:"name"`
	StartLat       float64 `json:"start_lat" badgerhold:"index"`
	StartLon       float64 `json:"start_lon" badgerhold:"index"`
	EndLat         float64 `json:"end_lat"`
	EndLon         float64 `json:"end_lon"`
	IsLoop         bool    `json:"is_loop"`
	DistanceKm     float64 `json:"distance_km"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	Popularity     float64 `json:"popularity"`
	Geometry       []byte  `json:"geometry"` // GeoJSON LineString payload

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate converts the cached row into the transient search result shape
func (c *CachedRoute) Candidate() CandidateRoute {
	return CandidateRoute{
		ExternalID:     c.ID,
		SourceName:     "local",
		Name:           c.Name,
		Start:          geo.Point{Lat: c.StartLat, Lon: c.StartLon},
		End:            geo.Point{Lat: c.EndLat, Lon: c.EndLon},
		IsLoop:         c.IsLoop,
		DistanceKm:     c.DistanceKm,
		ElevationGainM: c.ElevationGainM,
		Popularity:     c.Popularity,
	}
}
