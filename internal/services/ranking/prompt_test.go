package ranking

import (
	"strings"
	"testing"

	"github.com/ternarybob/veloroute/internal/models"
)

var parseCandidates = []models.CandidateRoute{
	{ExternalID: "r1", DistanceKm: 45},
	{ExternalID: "r2", DistanceKm: 50},
}

func TestParseRanking(t *testing.T) {
	t.Run("valid response ordered by score", func(t *testing.T) {
		raw := `[{"route_id":"r1","score":0.6,"reasoning":"a bit short"},
		         {"route_id":"r2","score":0.95,"reasoning":"near perfect distance"}]`

		ranked, err := parseRanking(raw, parseCandidates)
		if err != nil {
			t.Fatalf("parseRanking failed: %v", err)
		}
		if len(ranked) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(ranked))
		}
		if ranked[0].Candidate.ExternalID != "r2" {
			t.Errorf("Expected highest score first, got %s", ranked[0].Candidate.ExternalID)
		}
		if ranked[0].Reasoning != "near perfect distance" {
			t.Errorf("Reasoning not carried through: %q", ranked[0].Reasoning)
		}
	})

	t.Run("markdown fences stripped", func(t *testing.T) {
		raw := "```json\n[{\"route_id\":\"r1\",\"score\":0.5,\"reasoning\":\"ok\"},{\"route_id\":\"r2\",\"score\":0.7,\"reasoning\":\"ok\"}]\n```"

		ranked, err := parseRanking(raw, parseCandidates)
		if err != nil {
			t.Fatalf("parseRanking failed on fenced response: %v", err)
		}
		if len(ranked) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(ranked))
		}
	})

	t.Run("rejected responses", func(t *testing.T) {
		cases := []struct {
			name string
			raw  string
		}{
			{"no json", "I cannot rank these routes."},
			{"missing candidate", `[{"route_id":"r1","score":0.5,"reasoning":"x"}]`},
			{"unknown id", `[{"route_id":"r1","score":0.5,"reasoning":"x"},{"route_id":"bogus","score":0.5,"reasoning":"x"}]`},
			{"duplicate id", `[{"route_id":"r1","score":0.5,"reasoning":"x"},{"route_id":"r1","score":0.6,"reasoning":"x"}]`},
			{"score above one", `[{"route_id":"r1","score":1.5,"reasoning":"x"},{"route_id":"r2","score":0.5,"reasoning":"x"}]`},
			{"negative score", `[{"route_id":"r1","score":-0.1,"reasoning":"x"},{"route_id":"r2","score":0.5,"reasoning":"x"}]`},
			{"not an array", `{"route_id":"r1","score":0.5}`},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := parseRanking(tc.raw, parseCandidates); err == nil {
					t.Errorf("Expected rejection for %s", tc.name)
				}
			})
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	workout := &models.Workout{
		Name:             "Hill repeats",
		Intent:           models.IntentClimbing,
		TargetDistanceKm: 50,
	}
	prefs := &models.UserRoutingPreferences{
		UserID:          "u1",
		AvoidHighways:   true,
		MaxGradePercent: 12,
	}
	candidates := []models.CandidateRoute{
		{ExternalID: "r9", Name: "Ridge loop", SourceName: "community", DistanceKm: 42.5, ElevationGainM: 900, IsLoop: true, Popularity: 57},
	}

	prompt := buildPrompt(workout, candidates, prefs)

	for _, want := range []string{"Hill repeats", "climbing", "hilly", "50.0 km", "id=r9", "loop=true", "popularity=57", "Avoid highways: true"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q:\n%s", want, prompt)
		}
	}

	// A mismatched fmt verb would leak "%!" noise into the candidate lines
	if strings.Contains(prompt, "%!") {
		t.Errorf("Prompt contains garbled formatting:\n%s", prompt)
	}
}
