package ranking

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

// Service wraps a primary ranking provider with the deterministic fallback.
// Rank never fails: when the primary provider errors or returns an unusable
// response, the deterministic rule takes over and the result is flagged as
// degraded so callers can record it.
type Service struct {
	primary  interfaces.RankingProvider
	fallback interfaces.RankingProvider
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewService creates a ranking service. The primary provider may itself be
// the deterministic provider, in which case ranking is never degraded.
// A zero timeout disables the overall cap on the primary attempt.
func NewService(primary interfaces.RankingProvider, timeout time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		primary:  primary,
		fallback: NewDeterministicProvider(),
		timeout:  timeout,
		logger:   logger,
	}
}

// Rank orders candidates best-first for the workout. The degraded flag is
// true when the primary provider failed and the deterministic fallback
// produced the ordering instead.
func (s *Service) Rank(ctx context.Context, workout *models.Workout, candidates []models.CandidateRoute, prefs *models.UserRoutingPreferences) ([]models.RankedRoute, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	rankCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		rankCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ranked, err := s.primary.Rank(rankCtx, workout, candidates, prefs)
	if err == nil {
		return ranked, false
	}

	s.logger.Warn().
		Err(&models.RankingDegradedError{Cause: err}).
		Str("workout_id", workout.ID).
		Str("provider", s.primary.Name()).
		Msg("Primary ranking failed, falling back to deterministic scoring")

	// The deterministic provider is pure and cannot fail.
	ranked, _ = s.fallback.Rank(ctx, workout, candidates, prefs)
	return ranked, true
}
