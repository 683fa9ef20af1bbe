package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CachedRouteStorage implements the CachedRouteStorage interface for Badger
type CachedRouteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCachedRouteStorage creates a new CachedRouteStorage instance
func NewCachedRouteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CachedRouteStorage {
	return &CachedRouteStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CachedRouteStorage) SaveCachedRoute(route *models.CachedRoute) error {
	if route.ID == "" {
		return fmt.Errorf("cached route ID is required")
	}

	now := time.Now()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = now
	}
	route.UpdatedAt = now

	if err := s.db.Store().Upsert(route.ID, route); err != nil {
		return fmt.Errorf("failed to save cached route: %w", err)
	}
	return nil
}

func (s *CachedRouteStorage) GetCachedRoute(id string) (*models.CachedRoute, error) {
	var route models.CachedRoute
	if err := s.db.Store().Get(id, &route); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrRouteNotFound
		}
		return nil, fmt.Errorf("failed to get cached route: %w", err)
	}
	return &route, nil
}

// FindNear returns cached routes starting inside the bounding box.
// The box is a coarse pre-filter; the local source narrows by true distance.
func (s *CachedRouteStorage) FindNear(minLat, maxLat, minLon, maxLon float64) ([]*models.CachedRoute, error) {
	var routes []models.CachedRoute
	err := s.db.Store().Find(&routes,
		badgerhold.Where("StartLat").Ge(minLat).And("StartLat").Le(maxLat).
			And("StartLon").Ge(minLon).And("StartLon").Le(maxLon))
	if err != nil {
		return nil, fmt.Errorf("failed to query cached routes: %w", err)
	}

	result := make([]*models.CachedRoute, len(routes))
	for i := range routes {
		result[i] = &routes[i]
	}
	return result, nil
}
