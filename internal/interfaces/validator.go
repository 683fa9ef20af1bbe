package interfaces

import (
	"github.com/ternarybob/veloroute/internal/models"
)

// RouteValidator rejects geometrically or semantically unsafe routes before
// they are persisted. A failure is a *models.ValidationError and is terminal
// for the candidate or attempt under validation.
type RouteValidator interface {
	Validate(route *models.AssembledRoute, workout *models.Workout, prefs *models.UserRoutingPreferences) error
}
