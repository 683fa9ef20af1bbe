package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PlanStorage implements the PlanStorage interface for Badger
type PlanStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPlanStorage creates a new PlanStorage instance
func NewPlanStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PlanStorage {
	return &PlanStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PlanStorage) SavePlan(plan *models.TrainingPlan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan ID is required")
	}

	now := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	if err := s.db.Store().Upsert(plan.ID, plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// ListActiveUserIDs returns distinct users with an active plan, sorted so
// batch runs visit users in a stable order.
func (s *PlanStorage) ListActiveUserIDs() ([]string, error) {
	var plans []models.TrainingPlan
	err := s.db.Store().Find(&plans, badgerhold.Where("Status").Eq(models.PlanStatusActive).Index("Status"))
	if err != nil {
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}

	seen := make(map[string]bool)
	var userIDs []string
	for _, plan := range plans {
		if !seen[plan.UserID] {
			seen[plan.UserID] = true
			userIDs = append(userIDs, plan.UserID)
		}
	}
	sort.Strings(userIDs)
	return userIDs, nil
}
