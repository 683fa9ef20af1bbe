package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// WorkoutStorage implements the WorkoutStorage interface for Badger
type WorkoutStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWorkoutStorage creates a new WorkoutStorage instance
func NewWorkoutStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WorkoutStorage {
	return &WorkoutStorage{
		db:     db,
		logger: logger,
	}
}

func (s *WorkoutStorage) SaveWorkout(workout *models.Workout) error {
	if workout.ID == "" {
		return fmt.Errorf("workout ID is required")
	}

	now := time.Now()
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = now
	}
	workout.UpdatedAt = now

	if workout.RouteStatus == "" {
		workout.RouteStatus = models.RouteStatusPending
	}

	if err := s.db.Store().Upsert(workout.ID, workout); err != nil {
		return fmt.Errorf("failed to save workout: %w", err)
	}
	return nil
}

func (s *WorkoutStorage) GetWorkout(id string) (*models.Workout, error) {
	var workout models.Workout
	if err := s.db.Store().Get(id, &workout); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}
	return &workout, nil
}

// ListPendingInWindow returns a user's rides inside [from, to) still pending
// route generation. Already-terminal workouts are never returned, which is
// what makes a batch re-run idempotent.
func (s *WorkoutStorage) ListPendingInWindow(userID string, from, to time.Time) ([]*models.Workout, error) {
	var workouts []models.Workout
	err := s.db.Store().Find(&workouts,
		badgerhold.Where("UserID").Eq(userID).Index("UserID").
			And("RouteStatus").Eq(models.RouteStatusPending).
			And("SportType").Eq("ride").
			And("ScheduledDate").Ge(from).
			And("ScheduledDate").Lt(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending workouts: %w", err)
	}

	result := make([]*models.Workout, len(workouts))
	for i := range workouts {
		result[i] = &workouts[i]
	}
	return result, nil
}

// SetRouteStatus writes the generation status. Forward-only: a terminal
// status can only be replaced by an explicit reset to pending.
func (s *WorkoutStorage) SetRouteStatus(id string, status models.RouteStatus, errMsg string) error {
	workout, err := s.GetWorkout(id)
	if err != nil {
		return err
	}

	if workout.RouteStatus.IsTerminal() && status.IsTerminal() {
		return fmt.Errorf("workout %s is already %s; reset to pending before regenerating", id, workout.RouteStatus)
	}

	workout.RouteStatus = status
	workout.RouteError = errMsg
	workout.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(workout.ID, workout); err != nil {
		return fmt.Errorf("failed to update workout status: %w", err)
	}
	return nil
}
