package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/models"
)

// scriptedProvider returns a fixed result or error
type scriptedProvider struct {
	ranked []models.RankedRoute
	err    error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Rank(_ context.Context, _ *models.Workout, _ []models.CandidateRoute, _ *models.UserRoutingPreferences) ([]models.RankedRoute, error) {
	return p.ranked, p.err
}

func TestService_Rank(t *testing.T) {
	logger := arbor.NewLogger()
	workout := enduranceWorkout(50)
	candidates := []models.CandidateRoute{
		{ExternalID: "r1", DistanceKm: 45},
		{ExternalID: "r2", DistanceKm: 30},
	}

	t.Run("primary result used when it succeeds", func(t *testing.T) {
		primary := &scriptedProvider{ranked: []models.RankedRoute{
			{Candidate: candidates[1], Score: 0.9, Reasoning: "ai pick"},
			{Candidate: candidates[0], Score: 0.4, Reasoning: "ai reject"},
		}}
		svc := NewService(primary, 0, logger)

		ranked, degraded := svc.Rank(context.Background(), workout, candidates, nil)
		if degraded {
			t.Error("Expected degraded=false when primary succeeds")
		}
		if ranked[0].Candidate.ExternalID != "r2" {
			t.Errorf("Expected primary's ordering, got %s first", ranked[0].Candidate.ExternalID)
		}
	})

	t.Run("deterministic fallback on primary failure", func(t *testing.T) {
		primary := &scriptedProvider{err: errors.New("model overloaded")}
		svc := NewService(primary, 0, logger)

		ranked, degraded := svc.Rank(context.Background(), workout, candidates, nil)
		if !degraded {
			t.Error("Expected degraded=true when primary fails")
		}
		// Deterministic rule prefers the distance closest to target
		if ranked[0].Candidate.ExternalID != "r1" {
			t.Errorf("Expected deterministic ordering, got %s first", ranked[0].Candidate.ExternalID)
		}
		if len(ranked) != len(candidates) {
			t.Errorf("Fallback must cover all candidates, got %d of %d", len(ranked), len(candidates))
		}
	})

	t.Run("empty candidates short-circuit", func(t *testing.T) {
		primary := &scriptedProvider{err: errors.New("should not be called")}
		svc := NewService(primary, 0, logger)

		ranked, degraded := svc.Rank(context.Background(), workout, nil, nil)
		if ranked != nil || degraded {
			t.Error("Expected nil, not-degraded result for empty candidate set")
		}
	})
}
