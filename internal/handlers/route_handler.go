package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

// RouteHandler serves workout routes and the manual generation trigger
type RouteHandler struct {
	orchestrator interfaces.RouteOrchestrator
	workouts     interfaces.WorkoutStorage
	routes       interfaces.RouteStorage
	logger       arbor.ILogger
}

func NewRouteHandler(orchestrator interfaces.RouteOrchestrator, storage interfaces.StorageManager, logger arbor.ILogger) *RouteHandler {
	return &RouteHandler{
		orchestrator: orchestrator,
		workouts:     storage.WorkoutStorage(),
		routes:       storage.RouteStorage(),
		logger:       logger,
	}
}

// GetRouteHandler returns the route for a workout. Failed and skipped
// workouts return their status and human-readable message with 200, not an
// error status.
func (h *RouteHandler) GetRouteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	workoutID := PathSegment(r, "/api/workouts/")
	if workoutID == "" {
		WriteError(w, http.StatusBadRequest, "workout id is required")
		return
	}

	workout, err := h.workouts.GetWorkout(workoutID)
	if err != nil {
		if errors.Is(err, models.ErrWorkoutNotFound) {
			WriteError(w, http.StatusNotFound, "workout not found")
			return
		}
		h.logger.Error().Err(err).Str("workout_id", workoutID).Msg("Failed to load workout")
		WriteError(w, http.StatusInternalServerError, "failed to load workout")
		return
	}

	response := map[string]interface{}{
		"workout_id": workout.ID,
		"status":     workout.RouteStatus,
	}
	if workout.RouteError != "" {
		response["message"] = workout.RouteError
	}

	if workout.RouteStatus == models.RouteStatusGenerated {
		route, err := h.routes.GetRouteByWorkout(workoutID)
		if err != nil {
			if !errors.Is(err, models.ErrRouteNotFound) {
				h.logger.Error().Err(err).Str("workout_id", workoutID).Msg("Failed to load route")
				WriteError(w, http.StatusInternalServerError, "failed to load route")
				return
			}
		} else {
			response["route"] = route
		}
	}

	WriteJSON(w, http.StatusOK, response)
}

// GenerateHandler triggers generation for one workout asynchronously with
// accepted-but-pending semantics. A terminal workout is reset to pending
// before the rerun.
func (h *RouteHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	workoutID := PathSegment(r, "/api/workouts/")
	if workoutID == "" {
		WriteError(w, http.StatusBadRequest, "workout id is required")
		return
	}

	workout, err := h.workouts.GetWorkout(workoutID)
	if err != nil {
		if errors.Is(err, models.ErrWorkoutNotFound) {
			WriteError(w, http.StatusNotFound, "workout not found")
			return
		}
		h.logger.Error().Err(err).Str("workout_id", workoutID).Msg("Failed to load workout")
		WriteError(w, http.StatusInternalServerError, "failed to load workout")
		return
	}

	common.SafeGo(h.logger, "manual-generation", func() {
		outcome, err := h.orchestrator.ResetAndGenerate(context.Background(), workout.ID)
		if err != nil {
			h.logger.Error().Err(err).Str("workout_id", workout.ID).Msg("Manual generation failed")
			return
		}
		h.logger.Info().
			Str("workout_id", workout.ID).
			Str("status", string(outcome.Status)).
			Msg("Manual generation finished")
	})

	WriteAccepted(w, "route generation started")
}
