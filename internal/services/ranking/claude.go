package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/models"
)

// ClaudeProvider ranks candidate routes using the Anthropic Claude API.
type ClaudeProvider struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeProvider creates a Claude-backed ranking provider.
func NewClaudeProvider(claudeConfig *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeProvider, error) {
	if claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude ranking (set via ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	provider := &ClaudeProvider{
		config:    claudeConfig,
		logger:    logger,
		client:    anthropic.NewClient(option.WithAPIKey(claudeConfig.APIKey)),
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Float32("temperature", claudeConfig.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude ranking provider initialized")

	return provider, nil
}

// Name identifies the provider
func (p *ClaudeProvider) Name() string {
	return "claude"
}

// Rank asks Claude to score each candidate against the workout and returns
// the candidates ordered best-first.
func (p *ClaudeProvider) Rank(ctx context.Context, workout *models.Workout, candidates []models.CandidateRoute, prefs *models.UserRoutingPreferences) ([]models.RankedRoute, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	startTime := time.Now()
	p.logger.Debug().
		Str("workout_id", workout.ID).
		Int("candidate_count", len(candidates)).
		Msg("Starting Claude ranking")

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(workout, candidates, prefs))),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(p.config.Temperature))
	}

	resp, err := p.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Claude API")
	}

	ranked, err := parseRanking(response.String(), candidates)
	if err != nil {
		return nil, fmt.Errorf("invalid Claude ranking response: %w", err)
	}

	p.logger.Debug().
		Str("workout_id", workout.ID).
		Int("candidate_count", len(candidates)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude ranking completed")

	return ranked, nil
}
