// Package assembly builds composite routes from a candidate body and
// synthesized connectors between the rider's home and the candidate.
package assembly

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

// Assembler joins connector segments and a candidate route body into one
// continuous path. Distances and elevation gains are recomputed from the
// merged geometry rather than summed from segment self-reports.
type Assembler struct {
	router        interfaces.Router
	maxOverTarget float64
	logger        arbor.ILogger
}

// NewAssembler creates an assembler. maxOverTarget is the fraction by which
// the assembled distance may exceed the workout target before the composite
// is rejected.
func NewAssembler(router interfaces.Router, maxOverTarget float64, logger arbor.ILogger) *Assembler {
	return &Assembler{
		router:        router,
		maxOverTarget: maxOverTarget,
		logger:        logger,
	}
}

// AssembleComposite builds a composite route for the workout from a ranked
// candidate and its full body geometry. A loop candidate gets a single
// home-to-start connector ridden out and back; an open candidate gets a
// home-to-start and an end-to-home connector. Returns ErrConnectorOverBudget
// when the assembled distance exceeds the target by more than the configured
// fraction.
func (a *Assembler) AssembleComposite(ctx context.Context, workout *models.Workout, ranked models.RankedRoute, body geo.Path, prefs *models.UserRoutingPreferences) (*models.AssembledRoute, error) {
	if body.IsEmpty() {
		return nil, fmt.Errorf("candidate %s has no geometry", ranked.Candidate.ExternalID)
	}
	if !prefs.HasHome() {
		return nil, fmt.Errorf("user %s has no home coordinate", prefs.UserID)
	}

	home := prefs.Home()

	outbound, err := a.router.RouteBetween(ctx, home, body.Start(), prefs)
	if err != nil {
		return nil, fmt.Errorf("routing outbound connector: %w", err)
	}

	var returning geo.Path
	if ranked.Candidate.IsLoop {
		returning = outbound.Reverse()
	} else {
		returning, err = a.router.RouteBetween(ctx, body.End(), home, prefs)
		if err != nil {
			return nil, fmt.Errorf("routing return connector: %w", err)
		}
	}

	path := geo.Concat(outbound, body, returning)

	maxKm := workout.TargetDistanceKm * (1 + a.maxOverTarget)
	if path.DistanceKm() > maxKm {
		return nil, fmt.Errorf("%w: assembled %.1f km exceeds %.1f km limit for %.1f km target",
			models.ErrConnectorOverBudget, path.DistanceKm(), maxKm, workout.TargetDistanceKm)
	}

	a.logger.Debug().
		Str("workout_id", workout.ID).
		Str("candidate_id", ranked.Candidate.ExternalID).
		Float64("body_km", body.DistanceKm()).
		Float64("outbound_km", outbound.DistanceKm()).
		Float64("return_km", returning.DistanceKm()).
		Float64("total_km", path.DistanceKm()).
		Msg("Assembled composite route")

	score := ranked.Score
	return &models.AssembledRoute{
		Name:            ranked.Candidate.Name,
		Source:          models.RouteSourceComposite,
		ExternalRouteID: ranked.Candidate.ExternalID,
		Path:            path,
		ConnectorsKm:    []float64{outbound.DistanceKm(), returning.DistanceKm()},
		MatchScore:      &score,
		MatchReasoning:  ranked.Reasoning,
	}, nil
}

// AssembleSynthetic wraps a router-generated path as a standalone route for
// the workout, used when no community candidate is suitable.
func (a *Assembler) AssembleSynthetic(workout *models.Workout, path geo.Path) *models.AssembledRoute {
	return &models.AssembledRoute{
		Name:   fmt.Sprintf("%s route", workout.Name),
		Source: models.RouteSourceGenerated,
		Path:   path,
	}
}
