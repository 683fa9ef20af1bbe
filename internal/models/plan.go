package models

import (
	"time"
)

// PlanStatus is the lifecycle state of a training plan
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusArchived  PlanStatus = "archived"
)

// TrainingPlan ties workouts to a user. Plan generation is owned elsewhere;
// the scheduler only needs the active flag to enumerate eligible users.
type TrainingPlan struct {
	ID        string     `json:"id" badgerhold:"key"`
	UserID    string     `json:"user_id" badgerhold:"index"`
	Name      string     `json:"name"`
	Goal      string     `json:"goal,omitempty"`
	Status    PlanStatus `json:"status" badgerhold:"index"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
