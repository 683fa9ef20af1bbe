package interfaces

import (
	"context"

	"github.com/ternarybob/veloroute/internal/models"
)

// GenerationOutcome is the terminal result of one workout's generation run
type GenerationOutcome struct {
	WorkoutID string             `json:"workout_id"`
	Status    models.RouteStatus `json:"status"`
	Route     *models.Route      `json:"route,omitempty"`
	Message   string             `json:"message,omitempty"` // Human-readable, set for failed/skipped
}

// RouteOrchestrator drives the per-workout pipeline: search, rank,
// connect/generate, validate, persist. It encapsulates the full fallback
// ladder (community match -> synthetic generation -> skip) and performs the
// single terminal write of route and workout status.
type RouteOrchestrator interface {
	// GenerateRoute runs the ladder for one pending workout. Per-call
	// failures are classified internally; the returned error is reserved for
	// infrastructure problems (storage unreachable, workout missing).
	GenerateRoute(ctx context.Context, workoutID string) (*GenerationOutcome, error)

	// ResetAndGenerate resets a terminal workout to pending and reruns the
	// ladder. Used by the manual trigger endpoint.
	ResetAndGenerate(ctx context.Context, workoutID string) (*GenerationOutcome, error)
}
