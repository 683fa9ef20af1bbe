package models

import (
	"github.com/ternarybob/veloroute/internal/geo"
)

// AssembledRoute is the in-memory result of assembly or synthesis, held by
// the orchestrator until it passes validation and is persisted as a Route.
type AssembledRoute struct {
	Name            string
	Source          RouteSource
	ExternalRouteID string
	Path            geo.Path
	ConnectorsKm    []float64 // Individual connector lengths; empty for synthetic routes
	MatchScore      *float64
	MatchReasoning  string
}

// TotalConnectorKm returns the summed connector distance
func (a *AssembledRoute) TotalConnectorKm() float64 {
	var total float64
	for _, km := range a.ConnectorsKm {
		total += km
	}
	return total
}
