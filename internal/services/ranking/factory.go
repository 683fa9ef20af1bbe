package ranking

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/interfaces"
)

// NewRankingService creates the ranking service with the configured primary
// provider. "deterministic" skips AI ranking entirely; "claude" and "gemini"
// use their respective APIs with deterministic fallback on failure.
func NewRankingService(cfg *common.Config, logger arbor.ILogger) (interfaces.RankingService, error) {
	logger.Info().Str("provider", cfg.Ranking.Provider).Msg("Initializing ranking service")

	primary, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if cfg.Ranking.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Ranking.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ranking timeout '%s': %w", cfg.Ranking.Timeout, err)
		}
	}

	return NewService(primary, timeout, logger), nil
}

func newProvider(cfg *common.Config, logger arbor.ILogger) (interfaces.RankingProvider, error) {
	switch cfg.Ranking.Provider {
	case "claude":
		provider, err := NewClaudeProvider(&cfg.Claude, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude ranking provider: %w", err)
		}
		return provider, nil

	case "gemini":
		provider, err := NewGeminiProvider(&cfg.Gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini ranking provider: %w", err)
		}
		return provider, nil

	case "deterministic":
		return NewDeterministicProvider(), nil

	default:
		return nil, fmt.Errorf("invalid ranking provider '%s': must be 'claude', 'gemini' or 'deterministic'", cfg.Ranking.Provider)
	}
}
