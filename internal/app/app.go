// Package app wires the application's services, storage and handlers.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/handlers"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/services/assembly"
	"github.com/ternarybob/veloroute/internal/services/orchestrator"
	"github.com/ternarybob/veloroute/internal/services/ranking"
	"github.com/ternarybob/veloroute/internal/services/routing"
	"github.com/ternarybob/veloroute/internal/services/scheduler"
	"github.com/ternarybob/veloroute/internal/services/sources"
	"github.com/ternarybob/veloroute/internal/services/validation"
	"github.com/ternarybob/veloroute/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Generation pipeline
	Sources        []interfaces.CandidateSource
	RankingService interfaces.RankingService
	Router         interfaces.Router
	Assembler      interfaces.RouteAssembler
	Validator      interfaces.RouteValidator
	Orchestrator   interfaces.RouteOrchestrator

	// Weekly cadence
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler         *handlers.APIHandler
	RouteHandler       *handlers.RouteHandler
	PreferencesHandler *handlers.PreferencesHandler
	SchedulerHandler   *handlers.SchedulerHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	community, err := sources.NewCommunitySource(&cfg.Community, sources.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize community source: %w", err)
	}
	local := sources.NewLocalSource(storageManager.CachedRouteStorage(), logger)
	app.Sources = []interfaces.CandidateSource{community, local}

	rankingService, err := ranking.NewRankingService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ranking service: %w", err)
	}
	app.RankingService = rankingService

	router, err := routing.NewEngine(&cfg.Router, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize routing engine: %w", err)
	}
	app.Router = router

	app.Assembler = assembly.NewAssembler(router, cfg.Generation.MaxOverTarget, logger)
	app.Validator = validation.NewValidator(cfg.Validation, logger)

	app.Orchestrator = orchestrator.NewOrchestrator(
		storageManager,
		app.Sources,
		app.RankingService,
		app.Router,
		app.Assembler,
		app.Validator,
		cfg.Generation,
		cfg.Ranking.MinScore,
		logger,
	)

	schedulerService, err := scheduler.NewService(app.Orchestrator, storageManager, cfg.Scheduler, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	app.SchedulerService = schedulerService

	app.APIHandler = handlers.NewAPIHandler()
	app.RouteHandler = handlers.NewRouteHandler(app.Orchestrator, storageManager, logger)
	app.PreferencesHandler = handlers.NewPreferencesHandler(storageManager, logger)
	app.SchedulerHandler = handlers.NewSchedulerHandler(app.SchedulerService, logger)

	logger.Info().
		Str("ranking_provider", cfg.Ranking.Provider).
		Int("candidate_sources", len(app.Sources)).
		Msg("Application initialized")

	return app, nil
}

// Start begins background services
func (a *App) Start() error {
	return a.SchedulerService.Start()
}

// Close stops background services and releases resources
func (a *App) Close() {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}
}
