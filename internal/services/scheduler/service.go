// Package scheduler runs the weekly batch that generates routes for every
// pending cycling workout in the upcoming week. Users are processed by a
// bounded worker pool with independent error capture per user, so one user's
// failure never blocks another's.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

// Service implements SchedulerService for the weekly generation cadence
type Service struct {
	orchestrator   interfaces.RouteOrchestrator
	plans          interfaces.PlanStorage
	workouts       interfaces.WorkoutStorage
	cron           *cron.Cron
	config         common.SchedulerConfig
	deadline       time.Duration
	workoutTimeout time.Duration
	logger         arbor.ILogger

	mu        sync.Mutex
	cronID    cron.EntryID
	running   bool
	isRunning bool // True while a batch is in flight
	lastRun   *time.Time
	lastError string
	wg        sync.WaitGroup
}

// NewService creates the weekly batch scheduler
func NewService(orchestrator interfaces.RouteOrchestrator, storage interfaces.StorageManager, config common.SchedulerConfig, logger arbor.ILogger) (*Service, error) {
	deadline, err := time.ParseDuration(config.Deadline)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler deadline '%s': %w", config.Deadline, err)
	}
	workoutTimeout, err := time.ParseDuration(config.WorkoutTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid workout timeout '%s': %w", config.WorkoutTimeout, err)
	}

	return &Service{
		orchestrator:   orchestrator,
		plans:          storage.PlanStorage(),
		workouts:       storage.WorkoutStorage(),
		cron:           cron.New(),
		config:         config,
		deadline:       deadline,
		workoutTimeout: workoutTimeout,
		logger:         logger,
	}, nil
}

// Start registers the weekly job and begins the cadence
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}

	cronID, err := s.cron.AddFunc(s.config.Schedule, s.runScheduledBatch)
	if err != nil {
		return fmt.Errorf("failed to register weekly job: %w", err)
	}
	s.cronID = cronID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Int("concurrency", s.config.Concurrency).
		Dur("deadline", s.deadline).
		Msg("Weekly route generation scheduler started")

	return nil
}

// Stop halts the cadence and waits for an in-flight batch to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Weekly route generation scheduler stopped")
	return nil
}

// Status returns the cadence job status
func (s *Service) Status() *interfaces.WeeklyJobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &interfaces.WeeklyJobStatus{
		Enabled:   s.config.Enabled,
		Schedule:  s.config.Schedule,
		IsRunning: s.isRunning,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}

	if s.running {
		entry := s.cron.Entry(s.cronID)
		if !entry.Next.IsZero() {
			next := entry.Next
			status.NextRun = &next
		}
	}

	return status
}

// runScheduledBatch is the cron entry point
func (s *Service) runScheduledBatch() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in weekly batch")
		}
	}()

	s.wg.Add(1)
	defer s.wg.Done()

	if _, err := s.RunWeeklyBatch(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Weekly batch failed")
	}
}

// RunWeeklyBatch processes every user with an active plan for the upcoming
// week window. The batch observes a global deadline: workouts not reached in
// time stay pending for a later retry rather than being forced terminal.
func (s *Service) RunWeeklyBatch(ctx context.Context) (*interfaces.BatchReport, error) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil, fmt.Errorf("a batch is already in flight")
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		now := time.Now()
		s.isRunning = false
		s.lastRun = &now
		s.mu.Unlock()
	}()

	weekStart, weekEnd := NextWeekWindow(time.Now())

	batchCtx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	report := &interfaces.BatchReport{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		StartedAt: time.Now(),
	}

	userIDs, err := s.plans.ListActiveUserIDs()
	if err != nil {
		s.recordError(err)
		return nil, fmt.Errorf("listing users with active plans: %w", err)
	}

	s.logger.Info().
		Int("user_count", len(userIDs)).
		Str("week_start", weekStart.Format("2006-01-02")).
		Str("week_end", weekEnd.Format("2006-01-02")).
		Msg("Weekly batch started")

	results := make([]interfaces.BatchUserResult, len(userIDs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.config.Concurrency; w++ {
		wg.Add(1)
		common.SafeGo(s.logger, "batch-worker", func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.processUser(batchCtx, userIDs[i], weekStart, weekEnd)
			}
		})
	}

dispatch:
	for i := range userIDs {
		select {
		case jobs <- i:
		case <-batchCtx.Done():
			report.DeadlineHit = true
			for j := i; j < len(userIDs); j++ {
				results[j] = interfaces.BatchUserResult{UserID: userIDs[j], Error: "batch deadline reached before processing"}
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if batchCtx.Err() != nil {
		report.DeadlineHit = true
	}

	report.Users = results
	report.CompletedAt = time.Now()

	generated, failed, skipped := 0, 0, 0
	for _, r := range results {
		generated += r.Generated
		failed += r.Failed
		skipped += r.Skipped
	}

	s.logger.Info().
		Int("users", len(results)).
		Int("generated", generated).
		Int("failed", failed).
		Int("skipped", skipped).
		Bool("deadline_hit", report.DeadlineHit).
		Dur("duration", report.CompletedAt.Sub(report.StartedAt)).
		Msg("Weekly batch completed")

	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()

	return report, nil
}

// processUser runs the orchestrator for each of one user's pending rides in
// the window. Every error is captured in the result; nothing propagates.
func (s *Service) processUser(ctx context.Context, userID string, weekStart, weekEnd time.Time) (result interfaces.BatchUserResult) {
	result.UserID = userID

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("panic: %v", r)
			s.logger.Error().
				Str("user_id", userID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED processing user")
		}
	}()

	pending, err := s.workouts.ListPendingInWindow(userID, weekStart, weekEnd)
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to list pending workouts, user skipped")
		return result
	}

	for _, workout := range pending {
		if ctx.Err() != nil {
			// Deadline reached: remaining workouts stay pending for retry.
			return result
		}

		workoutCtx, cancel := context.WithTimeout(ctx, s.workoutTimeout)
		outcome, err := s.orchestrator.GenerateRoute(workoutCtx, workout.ID)
		cancel()

		if err != nil {
			result.Error = err.Error()
			s.logger.Warn().
				Err(err).
				Str("user_id", userID).
				Str("workout_id", workout.ID).
				Msg("Orchestration error, continuing with user's next workout")
			continue
		}

		switch outcome.Status {
		case models.RouteStatusGenerated:
			result.Generated++
		case models.RouteStatusFailed:
			result.Failed++
		case models.RouteStatusSkipped:
			result.Skipped++
		}
	}

	return result
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// NextWeekWindow returns [next Monday 00:00, the Monday after) in local time
func NextWeekWindow(now time.Time) (time.Time, time.Time) {
	daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysUntilMonday)
	return start, start.AddDate(0, 0, 7)
}
