package ranking

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/veloroute/internal/models"
)

const systemPrompt = `You are a cycling route selection assistant. You are given a planned workout and a list of candidate routes. Score how well each candidate suits the workout.

Consider:
- How closely the route distance matches the workout target distance
- Whether the elevation profile suits the workout intent (climbing workouts want elevation, recovery workouts want flat terrain)
- Route popularity as a proxy for surface quality and safety
- The rider's stated routing preferences

Respond with ONLY a JSON array, no prose, one object per candidate:
[{"route_id": "<external id>", "score": <0.0 to 1.0>, "reasoning": "<one sentence>"}]

Every candidate must appear exactly once. Scores must be between 0 and 1.`

type rankedItem struct {
	RouteID   string  `json:"route_id"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// buildPrompt renders the workout, preferences and candidates as the user
// message for an AI ranking call.
func buildPrompt(workout *models.Workout, candidates []models.CandidateRoute, prefs *models.UserRoutingPreferences) string {
	var sb strings.Builder

	sb.WriteString("Workout:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", workout.Name)
	fmt.Fprintf(&sb, "- Intent: %s (prefers %s terrain)\n", workout.Intent, workout.Intent.PreferredTerrain())
	fmt.Fprintf(&sb, "- Target distance: %.1f km\n", workout.TargetDistanceKm)
	fmt.Fprintf(&sb, "- Target elevation gain: %.0f m\n", workout.TargetElevationGainM())
	if workout.Description != "" {
		fmt.Fprintf(&sb, "- Description: %s\n", workout.Description)
	}

	if prefs != nil {
		sb.WriteString("\nRider preferences:\n")
		fmt.Fprintf(&sb, "- Avoid highways: %t\n", prefs.AvoidHighways)
		fmt.Fprintf(&sb, "- Prefer bike paths: %t\n", prefs.PreferBikePaths)
		fmt.Fprintf(&sb, "- Avoid high traffic: %t\n", prefs.AvoidHighTraffic)
		fmt.Fprintf(&sb, "- Max grade: %.0f%%\n", prefs.MaxGradePercent)
	}

	sb.WriteString("\nCandidate routes:\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- id=%s name=%q source=%s distance=%.1fkm elevation=%.0fm loop=%t popularity=%.0f\n",
			c.ExternalID, c.Name, c.SourceName, c.DistanceKm, c.ElevationGainM, c.IsLoop, c.Popularity)
	}

	return sb.String()
}

// parseRanking decodes an AI response into ranked routes. The response must
// cover every candidate exactly once with scores in [0, 1]; anything else is
// rejected so the caller falls back to deterministic ranking.
func parseRanking(raw string, candidates []models.CandidateRoute) ([]models.RankedRoute, error) {
	text := extractJSONArray(raw)
	if text == "" {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var items []rankedItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("decoding ranking response: %w", err)
	}
	if len(items) != len(candidates) {
		return nil, fmt.Errorf("ranking covered %d of %d candidates", len(items), len(candidates))
	}

	byID := make(map[string]models.CandidateRoute, len(candidates))
	for _, c := range candidates {
		byID[c.ExternalID] = c
	}

	seen := make(map[string]bool, len(items))
	ranked := make([]models.RankedRoute, 0, len(items))
	for _, item := range items {
		candidate, ok := byID[item.RouteID]
		if !ok {
			return nil, fmt.Errorf("unknown route id %q in ranking", item.RouteID)
		}
		if seen[item.RouteID] {
			return nil, fmt.Errorf("duplicate route id %q in ranking", item.RouteID)
		}
		seen[item.RouteID] = true
		if item.Score < 0 || item.Score > 1 {
			return nil, fmt.Errorf("score %.3f for %q outside [0,1]", item.Score, item.RouteID)
		}
		ranked = append(ranked, models.RankedRoute{
			Candidate: candidate,
			Score:     item.Score,
			Reasoning: item.Reasoning,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Candidate.ExternalID < ranked[j].Candidate.ExternalID
	})
	return ranked, nil
}

// extractJSONArray pulls the first top-level JSON array out of a response
// that may wrap it in markdown fences or prose.
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
