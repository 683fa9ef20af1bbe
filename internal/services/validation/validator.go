// Package validation rejects geometrically or semantically unsafe routes
// before they are persisted.
package validation

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/models"
)

// Validator checks assembled routes against configurable safety thresholds.
// Any failure is terminal for the current candidate or attempt.
type Validator struct {
	config common.ValidationConfig
	logger arbor.ILogger
}

// NewValidator creates a validator with thresholds from config.
func NewValidator(config common.ValidationConfig, logger arbor.ILogger) *Validator {
	return &Validator{
		config: config,
		logger: logger,
	}
}

// Validate returns nil when the route is safe to persist, or a
// *models.ValidationError naming the first failed check.
func (v *Validator) Validate(route *models.AssembledRoute, workout *models.Workout, prefs *models.UserRoutingPreferences) error {
	if route.Path.Len() < v.config.MinGeometryPoints {
		return &models.ValidationError{
			Reason: fmt.Sprintf("geometry has %d points, need at least %d", route.Path.Len(), v.config.MinGeometryPoints),
		}
	}

	if gap := route.Path.MaxGapKm(); gap > v.config.MaxGapKm {
		return &models.ValidationError{
			Reason: fmt.Sprintf("gap of %.2f km between adjacent points exceeds %.2f km limit", gap, v.config.MaxGapKm),
		}
	}

	for i, km := range route.ConnectorsKm {
		if km > v.config.MaxConnectorKm {
			return &models.ValidationError{
				Reason: fmt.Sprintf("connector %d is %.1f km, exceeds %.1f km limit", i+1, km, v.config.MaxConnectorKm),
			}
		}
	}

	tolerance := v.config.SyntheticTolerance
	if route.Source == models.RouteSourceComposite {
		tolerance = v.config.CompositeTolerance
	}
	target := workout.TargetDistanceKm
	if target > 0 {
		deviation := (route.Path.DistanceKm() - target) / target
		if deviation > tolerance || deviation < -tolerance {
			return &models.ValidationError{
				Reason: fmt.Sprintf("distance %.1f km deviates %.0f%% from %.1f km target, tolerance %.0f%%",
					route.Path.DistanceKm(), deviation*100, target, tolerance*100),
			}
		}
	}

	v.logger.Debug().
		Str("workout_id", workout.ID).
		Str("source", string(route.Source)).
		Int("points", route.Path.Len()).
		Float64("distance_km", route.Path.DistanceKm()).
		Msg("Route passed validation")

	return nil
}
