package interfaces

import (
	"context"

	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/models"
)

// Router wraps the point-to-point routing engine. Both operations apply the
// user's routing preferences (avoid highways, prefer bike paths, max grade)
// as engine parameters and retry transient failures with bounded exponential
// backoff before surfacing models.ErrRoutingUnavailable. A route that cannot
// exist wraps models.ErrNoPathFound.
type Router interface {
	// RouteBetween produces a single path between two coordinates
	RouteBetween(ctx context.Context, from, to geo.Point, prefs *models.UserRoutingPreferences) (geo.Path, error)

	// RouteFromStart produces a full route of roughly targetKm starting and
	// ending at start. Used for synthetic generation when no candidate fits.
	RouteFromStart(ctx context.Context, start geo.Point, targetKm float64, prefs *models.UserRoutingPreferences) (geo.Path, error)
}
