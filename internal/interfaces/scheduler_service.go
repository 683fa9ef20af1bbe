package interfaces

import (
	"context"
	"time"
)

// BatchUserResult records one user's outcome within a weekly batch run
type BatchUserResult struct {
	UserID    string `json:"user_id"`
	Generated int    `json:"generated"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"` // Set when the user's processing aborted entirely
}

// BatchReport aggregates a weekly batch run
type BatchReport struct {
	WeekStart   time.Time         `json:"week_start"`
	WeekEnd     time.Time         `json:"week_end"`
	Users       []BatchUserResult `json:"users"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	DeadlineHit bool              `json:"deadline_hit"` // True when the global cutoff left workouts pending
}

// WeeklyJobStatus describes the cadence job
type WeeklyJobStatus struct {
	Enabled   bool       `json:"enabled"`
	Schedule  string     `json:"schedule"`
	IsRunning bool       `json:"is_running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerService manages the weekly batch cadence
type SchedulerService interface {
	// Start registers the cron job and begins the cadence
	Start() error

	// Stop halts the scheduler and waits for an in-flight batch to finish
	Stop() error

	// RunWeeklyBatch executes one batch for the upcoming week window,
	// regardless of cadence. Used by the manual trigger endpoint.
	RunWeeklyBatch(ctx context.Context) (*BatchReport, error)

	// Status returns the cadence job status
	Status() *WeeklyJobStatus
}
