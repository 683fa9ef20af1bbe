package models

import (
	"time"
)

// RouteSource identifies how a route was produced
type RouteSource string

const (
	// RouteSourceCommunity is a community route used as-is
	RouteSourceCommunity RouteSource = "community"
	// RouteSourceGenerated is a fully synthetic route from the routing engine
	RouteSourceGenerated RouteSource = "generated"
	// RouteSourceComposite is a community body joined to home by connectors
	RouteSourceComposite RouteSource = "composite"
)

// Route is a generated or discovered path tied 1:1 to a workout.
// Geometry is stored twice: the full GeoJSON payload for consumers that need
// elevations, and an encoded polyline for lightweight display.
type Route struct {
	ID              string      `json:"id" badgerhold:"key"`
	WorkoutID       string      `json:"workout_id" badgerhold:"unique"`
	Source          RouteSource `json:"source"`
	ExternalRouteID string      `json:"external_route_id,omitempty"` // ID at the community source, if any
	Name            string      `json:"name"`
	DistanceKm      float64     `json:"distance_km"`
	ElevationGainM  float64     `json:"elevation_gain_m"`
	Geometry        []byte      `json:"geometry"`                    // GeoJSON LineString payload
	Polyline        string      `json:"polyline"`                    // Encoded polyline
	IsComposite     bool        `json:"is_composite"`
	ConnectorKm     *float64    `json:"connector_km,omitempty"`      // Total connector distance; set iff composite
	MatchScore      *float64    `json:"match_score,omitempty"`       // Ranking score 0-1, if ranked
	MatchReasoning  string      `json:"match_reasoning,omitempty"`
	GeneratedAt     time.Time   `json:"generated_at"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
