package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/interfaces"
	"github.com/ternarybob/veloroute/internal/models"
)

// fakeOrchestrator returns scripted outcomes keyed by workout ID
type fakeOrchestrator struct {
	mu       sync.Mutex
	outcomes map[string]*interfaces.GenerationOutcome
	errs     map[string]error
	panics   map[string]bool
	delay    time.Duration
	calls    []string
}

func (f *fakeOrchestrator) GenerateRoute(ctx context.Context, workoutID string) (*interfaces.GenerationOutcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, workoutID)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics[workoutID] {
		panic("scripted panic for " + workoutID)
	}
	if err, ok := f.errs[workoutID]; ok {
		return nil, err
	}
	if outcome, ok := f.outcomes[workoutID]; ok {
		return outcome, nil
	}
	return &interfaces.GenerationOutcome{WorkoutID: workoutID, Status: models.RouteStatusGenerated}, nil
}

func (f *fakeOrchestrator) ResetAndGenerate(ctx context.Context, workoutID string) (*interfaces.GenerationOutcome, error) {
	return f.GenerateRoute(ctx, workoutID)
}

func (f *fakeOrchestrator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeStorage serves scripted users and per-user pending workouts
type fakeStorage struct {
	users    []string
	pending  map[string][]*models.Workout
	listErrs map[string]error
}

func (f *fakeStorage) RouteStorage() interfaces.RouteStorage             { return nil }
func (f *fakeStorage) WorkoutStorage() interfaces.WorkoutStorage         { return f }
func (f *fakeStorage) PlanStorage() interfaces.PlanStorage               { return f }
func (f *fakeStorage) PreferenceStorage() interfaces.PreferenceStorage   { return nil }
func (f *fakeStorage) CachedRouteStorage() interfaces.CachedRouteStorage { return nil }
func (f *fakeStorage) Close() error                                      { return nil }

func (f *fakeStorage) SavePlan(plan *models.TrainingPlan) error { return nil }
func (f *fakeStorage) ListActiveUserIDs() ([]string, error)     { return f.users, nil }

func (f *fakeStorage) SaveWorkout(workout *models.Workout) error { return nil }
func (f *fakeStorage) GetWorkout(id string) (*models.Workout, error) {
	return nil, models.ErrWorkoutNotFound
}

func (f *fakeStorage) ListPendingInWindow(userID string, from, to time.Time) ([]*models.Workout, error) {
	if err, ok := f.listErrs[userID]; ok {
		return nil, err
	}
	var out []*models.Workout
	for _, w := range f.pending[userID] {
		if w.RouteStatus == models.RouteStatusPending {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeStorage) SetRouteStatus(id string, status models.RouteStatus, errMsg string) error {
	return nil
}

func testConfig() common.SchedulerConfig {
	return common.SchedulerConfig{
		Enabled:        true,
		Schedule:       "0 5 * * 0",
		Concurrency:    2,
		Deadline:       "30s",
		WorkoutTimeout: "5s",
	}
}

func pendingWorkout(id, userID string) *models.Workout {
	return &models.Workout{ID: id, UserID: userID, SportType: "ride", RouteStatus: models.RouteStatusPending}
}

func newTestService(t *testing.T, orchestrator interfaces.RouteOrchestrator, storage interfaces.StorageManager, config common.SchedulerConfig) *Service {
	t.Helper()
	service, err := NewService(orchestrator, storage, config, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return service
}

func TestNextWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "midweek",
			now:       time.Date(2025, 6, 11, 14, 30, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday rolls to next day",
			now:       time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC), // Sunday
			wantStart: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monday skips to the following week",
			now:       time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), // Monday
			wantStart: time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := NextWeekWindow(tt.now)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantStart.AddDate(0, 0, 7)) {
				t.Errorf("end = %v, want %v", end, tt.wantStart.AddDate(0, 0, 7))
			}
			if start.Weekday() != time.Monday {
				t.Errorf("window must start on Monday, got %v", start.Weekday())
			}
		})
	}
}

func TestRunWeeklyBatch_AggregatesOutcomes(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		outcomes: map[string]*interfaces.GenerationOutcome{
			"wk_a1": {WorkoutID: "wk_a1", Status: models.RouteStatusGenerated},
			"wk_a2": {WorkoutID: "wk_a2", Status: models.RouteStatusFailed},
			"wk_b1": {WorkoutID: "wk_b1", Status: models.RouteStatusSkipped},
		},
	}
	storage := &fakeStorage{
		users: []string{"alice", "bob"},
		pending: map[string][]*models.Workout{
			"alice": {pendingWorkout("wk_a1", "alice"), pendingWorkout("wk_a2", "alice")},
			"bob":   {pendingWorkout("wk_b1", "bob")},
		},
	}
	service := newTestService(t, orchestrator, storage, testConfig())

	report, err := service.RunWeeklyBatch(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyBatch failed: %v", err)
	}

	if len(report.Users) != 2 {
		t.Fatalf("expected 2 user results, got %d", len(report.Users))
	}
	if report.DeadlineHit {
		t.Error("deadline should not have been hit")
	}

	byUser := map[string]interfaces.BatchUserResult{}
	for _, r := range report.Users {
		byUser[r.UserID] = r
	}
	if got := byUser["alice"]; got.Generated != 1 || got.Failed != 1 || got.Skipped != 0 {
		t.Errorf("alice counts = %+v", got)
	}
	if got := byUser["bob"]; got.Generated != 0 || got.Skipped != 1 {
		t.Errorf("bob counts = %+v", got)
	}
}

func TestRunWeeklyBatch_UserFailureIsolation(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		errs: map[string]error{
			"wk_b1": fmt.Errorf("user bob has no home coordinate configured"),
		},
		panics: map[string]bool{"wk_c1": true},
	}
	storage := &fakeStorage{
		users: []string{"alice", "bob", "carol"},
		pending: map[string][]*models.Workout{
			"alice": {pendingWorkout("wk_a1", "alice")},
			"bob":   {pendingWorkout("wk_b1", "bob")},
			"carol": {pendingWorkout("wk_c1", "carol")},
		},
	}
	service := newTestService(t, orchestrator, storage, testConfig())

	report, err := service.RunWeeklyBatch(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyBatch failed: %v", err)
	}

	byUser := map[string]interfaces.BatchUserResult{}
	for _, r := range report.Users {
		byUser[r.UserID] = r
	}

	if got := byUser["alice"]; got.Generated != 1 || got.Error != "" {
		t.Errorf("alice should succeed despite other users failing: %+v", got)
	}
	if got := byUser["bob"]; got.Error == "" {
		t.Error("bob's orchestration error should be captured")
	}
	if got := byUser["carol"]; got.Error == "" {
		t.Error("carol's panic should be captured as an error")
	}
}

func TestRunWeeklyBatch_ListErrorSkipsUserOnly(t *testing.T) {
	orchestrator := &fakeOrchestrator{}
	storage := &fakeStorage{
		users: []string{"alice", "bob"},
		pending: map[string][]*models.Workout{
			"alice": {pendingWorkout("wk_a1", "alice")},
		},
		listErrs: map[string]error{"bob": fmt.Errorf("storage corrupted")},
	}
	service := newTestService(t, orchestrator, storage, testConfig())

	report, err := service.RunWeeklyBatch(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyBatch failed: %v", err)
	}

	byUser := map[string]interfaces.BatchUserResult{}
	for _, r := range report.Users {
		byUser[r.UserID] = r
	}
	if got := byUser["bob"]; got.Error == "" {
		t.Error("bob's list error should be captured")
	}
	if got := byUser["alice"]; got.Generated != 1 {
		t.Errorf("alice should still be processed: %+v", got)
	}
}

func TestRunWeeklyBatch_OnlyPendingWorkoutsProcessed(t *testing.T) {
	done := pendingWorkout("wk_done", "alice")
	done.RouteStatus = models.RouteStatusGenerated

	orchestrator := &fakeOrchestrator{}
	storage := &fakeStorage{
		users: []string{"alice"},
		pending: map[string][]*models.Workout{
			"alice": {pendingWorkout("wk_new", "alice"), done},
		},
	}
	service := newTestService(t, orchestrator, storage, testConfig())

	if _, err := service.RunWeeklyBatch(context.Background()); err != nil {
		t.Fatalf("RunWeeklyBatch failed: %v", err)
	}

	if got := orchestrator.callCount(); got != 1 {
		t.Errorf("expected 1 orchestrator call, got %d", got)
	}
}

func TestRunWeeklyBatch_DeadlineLeavesRemainingUsers(t *testing.T) {
	config := testConfig()
	config.Concurrency = 1
	config.Deadline = "20ms"

	orchestrator := &fakeOrchestrator{delay: 100 * time.Millisecond}
	storage := &fakeStorage{
		users: []string{"alice", "bob", "carol"},
		pending: map[string][]*models.Workout{
			"alice": {pendingWorkout("wk_a1", "alice")},
			"bob":   {pendingWorkout("wk_b1", "bob")},
			"carol": {pendingWorkout("wk_c1", "carol")},
		},
	}
	service := newTestService(t, orchestrator, storage, config)

	report, err := service.RunWeeklyBatch(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyBatch failed: %v", err)
	}

	if !report.DeadlineHit {
		t.Error("deadline hit should be reported")
	}

	unreached := 0
	for _, r := range report.Users {
		if r.Error == "batch deadline reached before processing" {
			unreached++
		}
	}
	if unreached == 0 {
		t.Error("expected at least one user cut off by the deadline")
	}
}

func TestRunWeeklyBatch_RejectsOverlappingRun(t *testing.T) {
	service := newTestService(t, &fakeOrchestrator{}, &fakeStorage{}, testConfig())

	service.mu.Lock()
	service.isRunning = true
	service.mu.Unlock()

	if _, err := service.RunWeeklyBatch(context.Background()); err == nil {
		t.Fatal("expected overlapping batch to be rejected")
	}
}

func TestService_StartDisabled(t *testing.T) {
	config := testConfig()
	config.Enabled = false

	service := newTestService(t, &fakeOrchestrator{}, &fakeStorage{}, config)
	if err := service.Start(); err != nil {
		t.Fatalf("disabled Start should be a no-op: %v", err)
	}

	status := service.Status()
	if status.Enabled {
		t.Error("status should report scheduler disabled")
	}
	if status.NextRun != nil {
		t.Error("disabled scheduler should have no next run")
	}
	if err := service.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestService_StartAndStatus(t *testing.T) {
	service := newTestService(t, &fakeOrchestrator{}, &fakeStorage{}, testConfig())
	if err := service.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer service.Stop()

	if err := service.Start(); err == nil {
		t.Error("second Start should fail")
	}

	status := service.Status()
	if !status.Enabled {
		t.Error("status should report enabled")
	}
	if status.NextRun == nil {
		t.Error("started scheduler should report a next run")
	}
	if status.IsRunning {
		t.Error("no batch should be in flight")
	}
}

func TestNewService_RejectsBadDurations(t *testing.T) {
	config := testConfig()
	config.Deadline = "not-a-duration"
	if _, err := NewService(&fakeOrchestrator{}, &fakeStorage{}, config, arbor.NewLogger()); err == nil {
		t.Error("invalid deadline should be rejected")
	}

	config = testConfig()
	config.WorkoutTimeout = "soon"
	if _, err := NewService(&fakeOrchestrator{}, &fakeStorage{}, config, arbor.NewLogger()); err == nil {
		t.Error("invalid workout timeout should be rejected")
	}
}
