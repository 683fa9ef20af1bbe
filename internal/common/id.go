package common

import (
	"github.com/google/uuid"
)

// NewRouteID generates a unique route ID with the "rt_" prefix
// Format: rt_<uuid>
func NewRouteID() string {
	return "rt_" + uuid.New().String()
}

// NewWorkoutID generates a unique workout ID with the "wk_" prefix
func NewWorkoutID() string {
	return "wk_" + uuid.New().String()
}

// NewPlanID generates a unique training plan ID with the "pl_" prefix
func NewPlanID() string {
	return "pl_" + uuid.New().String()
}
