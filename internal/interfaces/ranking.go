package interfaces

import (
	"context"

	"github.com/ternarybob/veloroute/internal/models"
)

// RankingProvider scores candidates against a workout's requirements.
// AI-backed providers may fail or return unusable output; the deterministic
// provider is pure and total and never fails.
type RankingProvider interface {
	// Name identifies the provider in logs
	Name() string

	// Rank returns the candidates ordered best-first with a score and
	// reasoning per entry. The result must be a total order over the input.
	Rank(ctx context.Context, workout *models.Workout, candidates []models.CandidateRoute, prefs *models.UserRoutingPreferences) ([]models.RankedRoute, error)
}

// RankingService is the single fallback decision point: it tries the
// configured AI provider and silently degrades to the deterministic rule
// when the provider fails, times out, or returns an unusable result.
type RankingService interface {
	// Rank never fails; degraded reports whether the fallback was used
	Rank(ctx context.Context, workout *models.Workout, candidates []models.CandidateRoute, prefs *models.UserRoutingPreferences) (ranked []models.RankedRoute, degraded bool)
}
