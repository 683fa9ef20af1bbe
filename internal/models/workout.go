package models

import (
	"time"
)

// RouteStatus tracks route generation for a workout.
// Transitions only move forward: pending -> generated | failed | skipped.
// Re-generation resets the status to pending before another attempt.
type RouteStatus string

const (
	RouteStatusPending   RouteStatus = "pending"
	RouteStatusGenerated RouteStatus = "generated"
	RouteStatusFailed    RouteStatus = "failed"
	RouteStatusSkipped   RouteStatus = "skipped"
)

// IsTerminal reports whether the status is an end state of the generation FSM
func (s RouteStatus) IsTerminal() bool {
	return s == RouteStatusGenerated || s == RouteStatusFailed || s == RouteStatusSkipped
}

// WorkoutIntent is the training intent used for terrain matching
type WorkoutIntent string

const (
	IntentIntervals WorkoutIntent = "intervals"
	IntentRecovery  WorkoutIntent = "recovery"
	IntentClimbing  WorkoutIntent = "climbing"
	IntentTempo     WorkoutIntent = "tempo"
	IntentEndurance WorkoutIntent = "endurance"
)

// PreferredTerrain maps a workout intent to the terrain that suits it:
// flat for intervals and recovery, hilly for climbing and tempo, rolling
// for endurance.
func (i WorkoutIntent) PreferredTerrain() string {
	switch i {
	case IntentIntervals, IntentRecovery:
		return "flat"
	case IntentClimbing, IntentTempo:
		return "hilly"
	default:
		return "rolling"
	}
}

// Workout is a planned training session. Plan and block bookkeeping is owned
// by the training side; this service only reads scheduling fields and writes
// the route generation status.
type Workout struct {
	ID               string        `json:"id" badgerhold:"key"`
	UserID           string        `json:"user_id" badgerhold:"index"`
	PlanID           string        `json:"plan_id" badgerhold:"index"`
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	ScheduledDate    time.Time     `json:"scheduled_date"`
	SportType        string        `json:"sport_type"` // e.g. "ride"
	Intent           WorkoutIntent `json:"intent"`
	TargetDistanceKm float64       `json:"target_distance_km"`
	DurationMinutes  int           `json:"duration_minutes,omitempty"`
	TargetIntensity  string        `json:"target_intensity,omitempty"`

	RouteStatus RouteStatus `json:"route_generation_status"`
	RouteError  string      `json:"route_generation_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TargetElevationGainM is the elevation gain implied by the workout's intent
// and distance, used when scoring candidate terrain. Roughly 5 m/km for flat
// work, 10 m/km rolling, 18 m/km hilly.
func (w *Workout) TargetElevationGainM() float64 {
	perKm := 10.0
	switch w.Intent.PreferredTerrain() {
	case "flat":
		perKm = 5.0
	case "hilly":
		perKm = 18.0
	}
	return w.TargetDistanceKm * perKm
}
