// Package ranking scores candidate routes against a workout's requirements.
// An AI provider does the primary scoring; a pure deterministic rule keeps
// ranking total when the AI is unavailable.
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ternarybob/veloroute/internal/models"
)

// DeterministicProvider ranks candidates with a pure numeric rule. For the
// same inputs it always produces the same scores and ordering: no state, no
// external calls. This is the property that keeps the system usable when AI
// ranking is down.
type DeterministicProvider struct{}

// NewDeterministicProvider creates the fallback provider
func NewDeterministicProvider() *DeterministicProvider {
	return &DeterministicProvider{}
}

// Name identifies the provider
func (p *DeterministicProvider) Name() string {
	return "deterministic"
}

// Rank scores each candidate as max(0, 1 - |distance - target| / target).
// Ties break on higher popularity, then smaller elevation deviation from the
// workout's intent-implied gain, then external ID for a stable total order.
func (p *DeterministicProvider) Rank(_ context.Context, workout *models.Workout, candidates []models.CandidateRoute, _ *models.UserRoutingPreferences) ([]models.RankedRoute, error) {
	target := workout.TargetDistanceKm
	targetGain := workout.TargetElevationGainM()

	ranked := make([]models.RankedRoute, 0, len(candidates))
	for _, c := range candidates {
		score := 0.0
		if target > 0 {
			score = math.Max(0, 1-math.Abs(c.DistanceKm-target)/target)
		}
		ranked = append(ranked, models.RankedRoute{
			Candidate: c,
			Score:     score,
			Reasoning: fmt.Sprintf("distance %.1f km vs %.1f km target", c.DistanceKm, target),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Candidate.Popularity != b.Candidate.Popularity {
			return a.Candidate.Popularity > b.Candidate.Popularity
		}
		devA := math.Abs(a.Candidate.ElevationGainM - targetGain)
		devB := math.Abs(b.Candidate.ElevationGainM - targetGain)
		if devA != devB {
			return devA < devB
		}
		return a.Candidate.ExternalID < b.Candidate.ExternalID
	})

	return ranked, nil
}
