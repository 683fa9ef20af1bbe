// Package orchestrator drives the per-workout route generation pipeline:
// candidate search, ranking, composite assembly, synthetic generation,
// validation and the single terminal persistence write. The fallback ladder
// (community match, then synthetic generation, then skip) is an explicit
// state machine so the exhaustion path stays testable in isolation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/geo"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

const skippedMessage = "No suitable route could be found near your location. Upload a GPX file to attach a route to this workout manually."

// Orchestrator implements interfaces.RouteOrchestrator.
type Orchestrator struct {
	workouts  interfaces.WorkoutStorage
	routes    interfaces.RouteStorage
	prefs     interfaces.PreferenceStorage
	sources   []interfaces.CandidateSource
	ranking   interfaces.RankingService
	router    interfaces.Router
	assembler interfaces.RouteAssembler
	validator interfaces.RouteValidator
	config    common.GenerationConfig
	minScore  float64
	logger    arbor.ILogger
}

// NewOrchestrator wires the generation pipeline.
func NewOrchestrator(
	storage interfaces.StorageManager,
	sources []interfaces.CandidateSource,
	ranking interfaces.RankingService,
	router interfaces.Router,
	assembler interfaces.RouteAssembler,
	validator interfaces.RouteValidator,
	generationConfig common.GenerationConfig,
	minScore float64,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		workouts:  storage.WorkoutStorage(),
		routes:    storage.RouteStorage(),
		prefs:     storage.PreferenceStorage(),
		sources:   sources,
		ranking:   ranking,
		router:    router,
		assembler: assembler,
		validator: validator,
		config:    generationConfig,
		minScore:  minScore,
		logger:    logger,
	}
}

// ladder states. Transitions only move down the ladder.
type ladderState int

const (
	stateSearch ladderState = iota
	stateRank
	stateComposite
	stateSynthetic
	stateFinalize
)

// generation carries one workout's run through the ladder.
type generation struct {
	workout    *models.Workout
	prefs      *models.UserRoutingPreferences
	candidates []models.CandidateRoute
	ranked     []models.RankedRoute
	assembled  *models.AssembledRoute

	// lastErr is the error captured from the most recent failed tier. Only
	// a failure of the synthetic tier makes it terminal.
	lastErr error
}

// GenerateRoute runs the fallback ladder for one pending workout and writes
// the terminal outcome. The returned error is reserved for infrastructure
// problems; ladder failures are encoded in the outcome status.
func (o *Orchestrator) GenerateRoute(ctx context.Context, workoutID string) (*interfaces.GenerationOutcome, error) {
	workout, err := o.workouts.GetWorkout(workoutID)
	if err != nil {
		return nil, err
	}
	if workout.RouteStatus.IsTerminal() {
		return nil, fmt.Errorf("workout %s is already %s; reset to pending before regenerating", workoutID, workout.RouteStatus)
	}

	userPrefs, err := o.prefs.GetOrCreate(workout.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for user %s: %w", workout.UserID, err)
	}
	if !userPrefs.HasHome() {
		return nil, fmt.Errorf("user %s has no home coordinate configured", workout.UserID)
	}

	gen := &generation{workout: workout, prefs: userPrefs}

	state := stateSearch
	for state != stateFinalize {
		switch state {
		case stateSearch:
			o.search(ctx, gen)
			if len(gen.candidates) == 0 {
				state = stateSynthetic
			} else {
				state = stateRank
			}

		case stateRank:
			gen.ranked, _ = o.rank(ctx, gen)
			state = stateComposite

		case stateComposite:
			if o.tryComposite(ctx, gen) {
				state = stateFinalize
			} else {
				state = stateSynthetic
			}

		case stateSynthetic:
			o.trySynthetic(ctx, gen)
			state = stateFinalize
		}
	}

	return o.finalize(gen)
}

// ResetAndGenerate resets a workout to pending, discards any existing route
// and reruns the ladder. This is the only path back out of a terminal state.
func (o *Orchestrator) ResetAndGenerate(ctx context.Context, workoutID string) (*interfaces.GenerationOutcome, error) {
	workout, err := o.workouts.GetWorkout(workoutID)
	if err != nil {
		return nil, err
	}

	if workout.RouteStatus != models.RouteStatusPending {
		if err := o.workouts.SetRouteStatus(workoutID, models.RouteStatusPending, ""); err != nil {
			return nil, fmt.Errorf("resetting workout %s: %w", workoutID, err)
		}
	}
	if err := o.routes.DeleteRouteByWorkout(workoutID); err != nil && !errors.Is(err, models.ErrRouteNotFound) {
		return nil, fmt.Errorf("discarding previous route for workout %s: %w", workoutID, err)
	}

	return o.GenerateRoute(ctx, workoutID)
}

// search queries every candidate source with the distance band that leaves
// budget for connectors. An unavailable source is logged and treated as
// empty rather than aborting the run.
func (o *Orchestrator) search(ctx context.Context, gen *generation) {
	band := interfaces.DistanceBand{
		MinKm: gen.workout.TargetDistanceKm * o.config.BandMinFraction,
		MaxKm: gen.workout.TargetDistanceKm * o.config.BandMaxFraction,
	}
	radius := gen.prefs.SearchRadiusKm
	if radius <= 0 {
		radius = o.config.DefaultRadiusKm
	}
	home := gen.prefs.Home()

	for _, source := range o.sources {
		found, err := source.Search(ctx, home, radius, band)
		if err != nil {
			if errors.Is(err, models.ErrSourceUnavailable) {
				o.logger.Warn().
					Err(err).
					Str("source", source.Name()).
					Str("workout_id", gen.workout.ID).
					Msg("Candidate source unavailable, treating as empty")
			} else {
				o.logger.Warn().
					Err(err).
					Str("source", source.Name()).
					Str("workout_id", gen.workout.ID).
					Msg("Candidate search failed, treating as empty")
			}
			continue
		}
		gen.candidates = append(gen.candidates, found...)
	}

	if len(gen.candidates) > o.config.MaxCandidates {
		gen.candidates = gen.candidates[:o.config.MaxCandidates]
	}

	o.logger.Debug().
		Str("workout_id", gen.workout.ID).
		Float64("band_min_km", band.MinKm).
		Float64("band_max_km", band.MaxKm).
		Float64("radius_km", radius).
		Int("candidate_count", len(gen.candidates)).
		Msg("Candidate search completed")
}

func (o *Orchestrator) rank(ctx context.Context, gen *generation) ([]models.RankedRoute, bool) {
	ranked, degraded := o.ranking.Rank(ctx, gen.workout, gen.candidates, gen.prefs)
	if degraded {
		o.logger.Warn().
			Str("workout_id", gen.workout.ID).
			Msg("AI ranking degraded, deterministic ordering in effect")
	}
	return ranked, degraded
}

// tryComposite attempts the community tier: for each acceptable ranked
// candidate, fetch its geometry, synthesize connectors, assemble and
// validate. The first candidate to survive wins. Returns false when the
// whole tier fails and the ladder should move to synthesis.
func (o *Orchestrator) tryComposite(ctx context.Context, gen *generation) bool {
	for _, ranked := range gen.ranked {
		if ranked.Score <= o.minScore {
			break
		}

		assembled, err := o.assembleCandidate(ctx, gen, ranked)
		if err != nil {
			gen.lastErr = err
			o.logger.Debug().
				Err(err).
				Str("workout_id", gen.workout.ID).
				Str("candidate_id", ranked.Candidate.ExternalID).
				Float64("score", ranked.Score).
				Msg("Candidate rejected, trying next")
			continue
		}

		gen.assembled = assembled
		return true
	}
	return false
}

func (o *Orchestrator) assembleCandidate(ctx context.Context, gen *generation, ranked models.RankedRoute) (*models.AssembledRoute, error) {
	source := o.sourceByName(ranked.Candidate.SourceName)
	if source == nil {
		return nil, fmt.Errorf("no source named %q for candidate %s", ranked.Candidate.SourceName, ranked.Candidate.ExternalID)
	}

	body, err := source.Detail(ctx, ranked.Candidate.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate geometry: %w", err)
	}

	assembled, err := o.assembler.AssembleComposite(ctx, gen.workout, ranked, body, gen.prefs)
	if err != nil {
		return nil, err
	}

	if err := o.validator.Validate(assembled, gen.workout, gen.prefs); err != nil {
		return nil, err
	}
	return assembled, nil
}

// trySynthetic asks the routing engine for a full route from home. A failure
// here exhausts the ladder.
func (o *Orchestrator) trySynthetic(ctx context.Context, gen *generation) {
	path, err := o.router.RouteFromStart(ctx, gen.prefs.Home(), gen.workout.TargetDistanceKm, gen.prefs)
	if err != nil {
		gen.lastErr = err
		return
	}

	assembled := o.assembler.AssembleSynthetic(gen.workout, path)
	if err := o.validator.Validate(assembled, gen.workout, gen.prefs); err != nil {
		gen.lastErr = err
		return
	}

	gen.assembled = assembled
	gen.lastErr = nil
}

// finalize performs the single terminal write: the route row (on success)
// and the workout status, classified from the captured error.
func (o *Orchestrator) finalize(gen *generation) (*interfaces.GenerationOutcome, error) {
	workoutID := gen.workout.ID

	if gen.assembled != nil {
		route, err := o.buildRoute(gen.workout, gen.assembled)
		if err != nil {
			return nil, fmt.Errorf("encoding route for workout %s: %w", workoutID, err)
		}
		if err := o.routes.SaveRoute(route); err != nil {
			return nil, fmt.Errorf("saving route for workout %s: %w", workoutID, err)
		}
		if err := o.workouts.SetRouteStatus(workoutID, models.RouteStatusGenerated, ""); err != nil {
			return nil, err
		}

		o.logger.Info().
			Str("workout_id", workoutID).
			Str("route_id", route.ID).
			Str("source", string(route.Source)).
			Float64("distance_km", route.DistanceKm).
			Msg("Route generated")

		return &interfaces.GenerationOutcome{
			WorkoutID: workoutID,
			Status:    models.RouteStatusGenerated,
			Route:     route,
		}, nil
	}

	// Skip only when there was nothing to work with at all: no candidates
	// and no path exists from home. Everything else is a failure with the
	// captured error.
	if len(gen.candidates) == 0 && errors.Is(gen.lastErr, models.ErrNoPathFound) {
		err := fmt.Errorf("%w: %v", models.ErrNoRouteFound, gen.lastErr)
		if statusErr := o.workouts.SetRouteStatus(workoutID, models.RouteStatusSkipped, err.Error()); statusErr != nil {
			return nil, statusErr
		}

		o.logger.Warn().
			Str("workout_id", workoutID).
			Msg("Fallback ladder exhausted, workout skipped")

		return &interfaces.GenerationOutcome{
			WorkoutID: workoutID,
			Status:    models.RouteStatusSkipped,
			Message:   skippedMessage,
		}, nil
	}

	failure := gen.lastErr
	if failure == nil {
		failure = models.ErrNoRouteFound
	}
	if statusErr := o.workouts.SetRouteStatus(workoutID, models.RouteStatusFailed, failure.Error()); statusErr != nil {
		return nil, statusErr
	}

	o.logger.Warn().
		Err(failure).
		Str("workout_id", workoutID).
		Msg("Route generation failed")

	return &interfaces.GenerationOutcome{
		WorkoutID: workoutID,
		Status:    models.RouteStatusFailed,
		Message:   failure.Error(),
	}, nil
}

func (o *Orchestrator) buildRoute(workout *models.Workout, assembled *models.AssembledRoute) (*models.Route, error) {
	geometry, err := geo.MarshalGeoJSON(assembled.Path)
	if err != nil {
		return nil, err
	}

	route := &models.Route{
		ID:              common.NewRouteID(),
		WorkoutID:       workout.ID,
		Source:          assembled.Source,
		ExternalRouteID: assembled.ExternalRouteID,
		Name:            assembled.Name,
		DistanceKm:      assembled.Path.DistanceKm(),
		ElevationGainM:  assembled.Path.ElevationGainM(),
		Geometry:        geometry,
		Polyline:        geo.EncodePolyline(assembled.Path),
		MatchScore:      assembled.MatchScore,
		MatchReasoning:  assembled.MatchReasoning,
		GeneratedAt:     time.Now(),
	}

	if assembled.Source == models.RouteSourceComposite {
		route.IsComposite = true
		connectorKm := assembled.TotalConnectorKm()
		route.ConnectorKm = &connectorKm
	}

	return route, nil
}

func (o *Orchestrator) sourceByName(name string) interfaces.CandidateSource {
	for _, s := range o.sources {
		if s.Name() == name {
			return s
		}
	}
	return nil
}
