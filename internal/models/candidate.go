package models

import (
	"github.com/ternarybob/veloroute/internal/geo"
)

// CandidateRoute is a discovered pre-existing route considered for reuse.
// Transient: owned by the orchestrator for the duration of one workout's
// generation, persisted only if selected (as a Route).
type CandidateRoute struct {
	ExternalID     string    `json:"external_id"`
	SourceName     string    `json:"source_name"` // Which adapter produced it, e.g. "community", "local"
	Name           string    `json:"name"`
	Start          geo.Point `json:"start"`
	End            geo.Point `json:"end"`
	IsLoop         bool      `json:"is_loop"`
	DistanceKm     float64   `json:"distance_km"`
	ElevationGainM float64   `json:"elevation_gain_m"`
	Popularity     float64   `json:"popularity"`  // Popularity/recency signal, higher is better
}

// RankedRoute is a candidate plus its ranking outcome
type RankedRoute struct {
	Candidate CandidateRoute `json:"candidate"`
	Score     float64        `json:"score"` // 0-1, higher is a better match
	Reasoning string         `json:"reasoning"`
}
