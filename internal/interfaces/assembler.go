package interfaces

import (
	"context"

	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/models"
)

// RouteAssembler joins candidate bodies and synthesized connectors into
// continuous routes with recomputed distance and elevation totals.
type RouteAssembler interface {
	// AssembleComposite builds home-connected composite route from a ranked
	// candidate and its full geometry. Fails with
	// models.ErrConnectorOverBudget when the result exceeds the distance
	// budget for the workout.
	AssembleComposite(ctx context.Context, workout *models.Workout, ranked models.RankedRoute, body geo.Path, prefs *models.UserRoutingPreferences) (*models.AssembledRoute, error)

	// AssembleSynthetic wraps a router-generated path as a standalone route
	AssembleSynthetic(workout *models.Workout, path geo.Path) *models.AssembledRoute
}
