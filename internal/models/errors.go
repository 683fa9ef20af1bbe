package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for the generation pipeline. Each sentinel maps to one
// fallback decision at the orchestrator boundary.
var (
	// ErrSourceUnavailable means a candidate source could not be reached.
	// Non-fatal: the orchestrator treats the source as empty.
	ErrSourceUnavailable = errors.New("candidate source unavailable")

	// ErrRoutingUnavailable means the routing engine failed after retries.
	// Fatal to the current tier.
	ErrRoutingUnavailable = errors.New("routing engine unavailable")

	// ErrNoPathFound means the routing engine found no path between points.
	ErrNoPathFound = errors.New("no path found")

	// ErrConnectorOverBudget means an assembled composite exceeds the
	// distance tolerance. Fatal to the composite tier only.
	ErrConnectorOverBudget = errors.New("composite route exceeds distance budget")

	// ErrNoRouteFound means the entire fallback ladder was exhausted.
	ErrNoRouteFound = errors.New("no route could be generated")

	// ErrWorkoutNotFound is returned by storage when a workout does not exist
	ErrWorkoutNotFound = errors.New("workout not found")

	// ErrRouteNotFound is returned by storage when no route exists for a workout
	ErrRouteNotFound = errors.New("route not found")
)

// ValidationError describes why a route failed safety validation.
// Fatal to the current candidate or attempt.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("route validation failed: %s", e.Reason)
}

// RankingDegradedError records that AI ranking failed and the deterministic
// fallback was used instead. Non-fatal; surfaced for observability only.
type RankingDegradedError struct {
	Cause error
}

func (e *RankingDegradedError) Error() string {
	return fmt.Sprintf("ai ranking degraded to deterministic fallback: %v", e.Cause)
}

func (e *RankingDegradedError) Unwrap() error {
	return e.Cause
}
