package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/models"
	"google.golang.org/genai"
)

// GeminiProvider ranks candidate routes using the Google Gemini API.
type GeminiProvider struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiProvider creates a Gemini-backed ranking provider.
func NewGeminiProvider(geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for Gemini ranking (set via GEMINI_API_KEY or gemini.api_key in config)")
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	provider := &GeminiProvider{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Msg("Gemini ranking provider initialized")

	return provider, nil
}

// Name identifies the provider
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Rank asks Gemini to score each candidate against the workout and returns
// the candidates ordered best-first.
func (p *GeminiProvider) Rank(ctx context.Context, workout *models.Workout, candidates []models.CandidateRoute, prefs *models.UserRoutingPreferences) ([]models.RankedRoute, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	startTime := time.Now()
	p.logger.Debug().
		Str("workout_id", workout.ID).
		Int("candidate_count", len(candidates)).
		Msg("Starting Gemini ranking")

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(buildPrompt(workout, candidates, prefs))},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0)),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(timeoutCtx, p.config.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}
	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Gemini API")
	}

	ranked, err := parseRanking(response.String(), candidates)
	if err != nil {
		return nil, fmt.Errorf("invalid Gemini ranking response: %w", err)
	}

	p.logger.Debug().
		Str("workout_id", workout.ID).
		Int("candidate_count", len(candidates)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini ranking completed")

	return ranked, nil
}
