package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	route       interfaces.RouteStorage
	workout     interfaces.WorkoutStorage
	plan        interfaces.PlanStorage
	preference  interfaces.PreferenceStorage
	cachedRoute interfaces.CachedRouteStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		route:       NewRouteStorage(db, logger),
		workout:     NewWorkoutStorage(db, logger),
		plan:        NewPlanStorage(db, logger),
		preference:  NewPreferenceStorage(db, logger),
		cachedRoute: NewCachedRouteStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// RouteStorage returns the Route storage interface
func (m *Manager) RouteStorage() interfaces.RouteStorage {
	return m.route
}

// WorkoutStorage returns the Workout storage interface
func (m *Manager) WorkoutStorage() interfaces.WorkoutStorage {
	return m.workout
}

// PlanStorage returns the TrainingPlan storage interface
func (m *Manager) PlanStorage() interfaces.PlanStorage {
	return m.plan
}

// PreferenceStorage returns the UserRoutingPreferences storage interface
func (m *Manager) PreferenceStorage() interfaces.PreferenceStorage {
	return m.preference
}

// CachedRouteStorage returns the CachedRoute storage interface
func (m *Manager) CachedRouteStorage() interfaces.CachedRouteStorage {
	return m.cachedRoute
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
