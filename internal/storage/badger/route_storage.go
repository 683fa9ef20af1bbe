package badger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RouteStorage implements the RouteStorage interface for Badger
type RouteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRouteStorage creates a new RouteStorage instance
func NewRouteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RouteStorage {
	return &RouteStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRoute upserts a route. The workout reference is unique: saving a route
// for a workout that already has one replaces the existing row.
func (s *RouteStorage) SaveRoute(route *models.Route) error {
	if route.ID == "" {
		return fmt.Errorf("route ID is required")
	}
	if route.WorkoutID == "" {
		return fmt.Errorf("route workout ID is required")
	}
	if route.IsComposite && (route.ConnectorKm == nil || route.Source != models.RouteSourceComposite) {
		return fmt.Errorf("composite route requires connector distance and composite source")
	}

	now := time.Now()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = now
	}
	route.UpdatedAt = now

	// Enforce one route per workout by replacing any prior row
	if existing, err := s.GetRouteByWorkout(route.WorkoutID); err == nil && existing.ID != route.ID {
		if err := s.db.Store().Delete(existing.ID, &models.Route{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to replace existing route: %w", err)
		}
		route.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(route.ID, route); err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}
	return nil
}

func (s *RouteStorage) GetRouteByWorkout(workoutID string) (*models.Route, error) {
	var routes []models.Route
	err := s.db.Store().Find(&routes, badgerhold.Where("WorkoutID").Eq(workoutID))
	if err != nil {
		return nil, fmt.Errorf("failed to find route: %w", err)
	}
	if len(routes) == 0 {
		return nil, models.ErrRouteNotFound
	}
	return &routes[0], nil
}

func (s *RouteStorage) DeleteRouteByWorkout(workoutID string) error {
	route, err := s.GetRouteByWorkout(workoutID)
	if err != nil {
		if errors.Is(err, models.ErrRouteNotFound) {
			return nil
		}
		return err
	}
	if err := s.db.Store().Delete(route.ID, &models.Route{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	return nil
}
