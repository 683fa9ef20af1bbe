package interfaces

import (
	"time"

	"github.com/ternarybob/veloroute/internal/models"
)

// RouteStorage persists generated routes. At most one route per workout.
type RouteStorage interface {
	SaveRoute(route *models.Route) error
	GetRouteByWorkout(workoutID string) (*models.Route, error)
	DeleteRouteByWorkout(workoutID string) error
}

// WorkoutStorage reads workouts and writes their generation status.
// Status and error fields are the only workout mutations this service makes.
type WorkoutStorage interface {
	SaveWorkout(workout *models.Workout) error
	GetWorkout(id string) (*models.Workout, error)
	// ListPendingInWindow returns a user's cycling workouts scheduled inside
	// [from, to) whose route status is pending
	ListPendingInWindow(userID string, from, to time.Time) ([]*models.Workout, error)
	// SetRouteStatus updates the generation status and error message
	SetRouteStatus(id string, status models.RouteStatus, errMsg string) error
}

// PlanStorage enumerates training plans
type PlanStorage interface {
	SavePlan(plan *models.TrainingPlan) error
	// ListActiveUserIDs returns the distinct users holding an active plan
	ListActiveUserIDs() ([]string, error)
}

// PreferenceStorage persists user routing preferences.
// GetOrCreate returns the defaults row on first access.
type PreferenceStorage interface {
	GetOrCreate(userID string) (*models.UserRoutingPreferences, error)
	Save(prefs *models.UserRoutingPreferences) error
}

// CachedRouteStorage backs the local candidate source
type CachedRouteStorage interface {
	SaveCachedRoute(route *models.CachedRoute) error
	GetCachedRoute(id string) (*models.CachedRoute, error)
	// FindNear returns cached routes whose start lies inside the bounding box
	FindNear(minLat, maxLat, minLon, maxLon float64) ([]*models.CachedRoute, error)
}

// StorageManager bundles the per-entity storages over one database
type StorageManager interface {
	RouteStorage() RouteStorage
	WorkoutStorage() WorkoutStorage
	PlanStorage() PlanStorage
	PreferenceStorage() PreferenceStorage
	CachedRouteStorage() CachedRouteStorage
	Close() error
}
