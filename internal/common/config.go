package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Community   CommunityConfig  `toml:"community"`
	Router      RouterConfig     `toml:"router"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Ranking     RankingConfig    `toml:"ranking"`
	Generation  GenerationConfig `toml:"generation"`
	Validation  ValidationConfig `toml:"validation"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lt=65536"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SchedulerConfig controls the weekly batch generation run
type SchedulerConfig struct {
	Enabled        bool   `toml:"enabled"`
	Schedule       string `toml:"schedule"`                    // Cron expression for the weekly run
	Concurrency    int    `toml:"concurrency" validate:"gt=0"` // Concurrent per-user workers
	Deadline       string `toml:"deadline"`                    // Global cutoff for the batch, e.g. "2h"
	WorkoutTimeout string `toml:"workout_timeout"`             // Per-workout generation timeout, e.g. "3m"
}

// CommunityConfig configures the community route source (Strava-style API)
type CommunityConfig struct {
	BaseURL           string `toml:"base_url"`
	AccessToken       string `toml:"access_token"`
	Timeout           string `toml:"timeout"`
	RateLimitRequests int    `toml:"rate_limit_requests" validate:"gt=0"` // Requests per window
	RateLimitWindow   string `toml:"rate_limit_window"`                   // e.g. "15m"
}

// RouterConfig configures the point-to-point routing engine (GraphHopper-style API)
type RouterConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Profile    string `toml:"profile"`     // Routing profile, e.g. "bike"
	Timeout    string `toml:"timeout"`
	MaxRetries int    `toml:"max_retries" validate:"gte=1,lte=10"`
	RetryDelay string `toml:"retry_delay"` // Base delay for exponential backoff
}

// ClaudeConfig contains Anthropic Claude settings for the ranking provider
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// GeminiConfig contains Google Gemini settings for the ranking provider
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// RankingConfig selects and tunes the candidate ranking service
type RankingConfig struct {
	Provider string  `toml:"provider" validate:"oneof=claude gemini deterministic"` // AI provider, "deterministic" disables AI
	MinScore float64 `toml:"min_score" validate:"gte=0,lte=1"`                      // Minimum top score to accept a candidate
	Timeout  string  `toml:"timeout"`
}

// GenerationConfig tunes candidate search and composite assembly
type GenerationConfig struct {
	BandMinFraction float64 `toml:"band_min_fraction" validate:"gt=0,lt=1"`  // Lower candidate distance bound as fraction of target
	BandMaxFraction float64 `toml:"band_max_fraction" validate:"gt=0,lte=1"` // Upper candidate distance bound as fraction of target
	MaxOverTarget   float64 `toml:"max_over_target" validate:"gte=0,lte=1"`  // Composite may exceed target by at most this fraction
	DefaultRadiusKm float64 `toml:"default_radius_km" validate:"gt=0"`       // Search radius when preferences carry none
	MaxCandidates   int     `toml:"max_candidates" validate:"gt=0"`          // Cap on candidates passed to ranking
}

// ValidationConfig holds safety validator thresholds
type ValidationConfig struct {
	MinGeometryPoints  int     `toml:"min_geometry_points" validate:"gte=2"`
	MaxGapKm           float64 `toml:"max_gap_km" validate:"gt=0"`          // Max distance between adjacent points
	MaxConnectorKm     float64 `toml:"max_connector_km" validate:"gt=0"`    // Per-connector length cap
	CompositeTolerance float64 `toml:"composite_tolerance" validate:"gt=0"` // Distance tolerance for composite routes
	SyntheticTolerance float64 `toml:"synthetic_tolerance" validate:"gt=0"` // Looser tolerance for synthetic routes
}

// NewDefaultConfig returns a config populated with sane defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/veloroute",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			Schedule:       "0 6 * * 1", // Monday 06:00
			Concurrency:    4,
			Deadline:       "2h",
			WorkoutTimeout: "3m",
		},
		Community: CommunityConfig{
			BaseURL:           "https://www.strava.com/api/v3",
			Timeout:           "30s",
			RateLimitRequests: 100,
			RateLimitWindow:   "15m",
		},
		Router: RouterConfig{
			BaseURL:    "https://graphhopper.com/api/1",
			Profile:    "bike",
			Timeout:    "30s",
			MaxRetries: 3,
			RetryDelay: "1s",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   2048,
			Temperature: 0.2,
			Timeout:     "30s",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "30s",
		},
		Ranking: RankingConfig{
			Provider: "claude",
			MinScore: 0.7,
			Timeout:  "20s",
		},
		Generation: GenerationConfig{
			BandMinFraction: 0.70,
			BandMaxFraction: 0.90,
			MaxOverTarget:   0.20,
			DefaultRadiusKm: 25,
			MaxCandidates:   10,
		},
		Validation: ValidationConfig{
			MinGeometryPoints:  10,
			MaxGapKm:           2.0,
			MaxConnectorKm:     50.0,
			CompositeTolerance: 0.20,
			SyntheticTolerance: 0.30,
		},
	}
}

// LoadFromFile loads configuration from a single TOML file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints and the scheduler cron expression
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Generation.BandMinFraction >= c.Generation.BandMaxFraction {
		return fmt.Errorf("invalid configuration: generation.band_min_fraction must be below band_max_fraction")
	}

	if c.Scheduler.Schedule != "" {
		if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule %q: %w", c.Scheduler.Schedule, err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VELOROUTE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VELOROUTE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VELOROUTE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("VELOROUTE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("VELOROUTE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VELOROUTE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Scheduler configuration
	if schedule := os.Getenv("VELOROUTE_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if concurrency := os.Getenv("VELOROUTE_SCHEDULER_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Scheduler.Concurrency = c
		}
	}
	if enabled := os.Getenv("VELOROUTE_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}

	// External service credentials
	if token := os.Getenv("VELOROUTE_COMMUNITY_ACCESS_TOKEN"); token != "" {
		config.Community.AccessToken = token
	}
	if key := os.Getenv("VELOROUTE_ROUTER_API_KEY"); key != "" {
		config.Router.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("VELOROUTE_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("VELOROUTE_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}

	// Ranking configuration
	if provider := os.Getenv("VELOROUTE_RANKING_PROVIDER"); provider != "" {
		config.Ranking.Provider = provider
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
