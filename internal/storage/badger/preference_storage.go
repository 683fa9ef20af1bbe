package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PreferenceStorage implements the PreferenceStorage interface for Badger
type PreferenceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPreferenceStorage creates a new PreferenceStorage instance
func NewPreferenceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PreferenceStorage {
	return &PreferenceStorage{
		db:     db,
		logger: logger,
	}
}

// GetOrCreate returns the user's preferences, inserting the defaults row on
// first access so exactly one row exists per user.
func (s *PreferenceStorage) GetOrCreate(userID string) (*models.UserRoutingPreferences, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	var prefs models.UserRoutingPreferences
	err := s.db.Store().Get(userID, &prefs)
	if err == nil {
		return &prefs, nil
	}
	if err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	defaults := models.DefaultPreferences(userID)
	now := time.Now()
	defaults.CreatedAt = now
	defaults.UpdatedAt = now

	if err := s.db.Store().Upsert(userID, defaults); err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}

	s.logger.Debug().Str("user_id", userID).Msg("Created default routing preferences")
	return defaults, nil
}

func (s *PreferenceStorage) Save(prefs *models.UserRoutingPreferences) error {
	if prefs.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	now := time.Now()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now

	if err := s.db.Store().Upsert(prefs.UserID, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
