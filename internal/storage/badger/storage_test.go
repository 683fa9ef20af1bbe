package badger

import (
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func rideOn(id, userID string, scheduled time.Time) *models.Workout {
	return &models.Workout{
		ID:               id,
		UserID:           userID,
		Name:             "Endurance ride",
		SportType:        "ride",
		Intent:           models.IntentEndurance,
		TargetDistanceKm: 50,
		ScheduledDate:    scheduled,
	}
}

func TestWorkoutStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	storage := NewWorkoutStorage(db, arbor.NewLogger())

	workout := rideOn("wk_1", "u1", time.Now())
	if err := storage.SaveWorkout(workout); err != nil {
		t.Fatalf("Failed to save workout: %v", err)
	}

	saved, err := storage.GetWorkout("wk_1")
	if err != nil {
		t.Fatalf("Failed to get workout: %v", err)
	}
	if saved.RouteStatus != models.RouteStatusPending {
		t.Errorf("New workout should default to pending, got %s", saved.RouteStatus)
	}

	if err := storage.SetRouteStatus("wk_1", models.RouteStatusFailed, "routing engine unavailable"); err != nil {
		t.Fatalf("pending -> failed should succeed: %v", err)
	}

	// Terminal to terminal is rejected
	if err := storage.SetRouteStatus("wk_1", models.RouteStatusGenerated, ""); err == nil {
		t.Error("failed -> generated should be rejected without a reset")
	}

	// The explicit reset path reopens the workout
	if err := storage.SetRouteStatus("wk_1", models.RouteStatusPending, ""); err != nil {
		t.Fatalf("failed -> pending reset should succeed: %v", err)
	}
	if err := storage.SetRouteStatus("wk_1", models.RouteStatusGenerated, ""); err != nil {
		t.Fatalf("pending -> generated should succeed after reset: %v", err)
	}

	saved, err = storage.GetWorkout("wk_1")
	if err != nil {
		t.Fatal(err)
	}
	if saved.RouteStatus != models.RouteStatusGenerated {
		t.Errorf("Expected generated, got %s", saved.RouteStatus)
	}
	if saved.RouteError != "" {
		t.Errorf("Error message should be cleared, got %q", saved.RouteError)
	}

	if _, err := storage.GetWorkout("missing"); !errors.Is(err, models.ErrWorkoutNotFound) {
		t.Errorf("Expected ErrWorkoutNotFound, got %v", err)
	}
}

func TestListPendingInWindow(t *testing.T) {
	db := newTestDB(t)
	storage := NewWorkoutStorage(db, arbor.NewLogger())

	weekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)

	inWindow := rideOn("wk_in", "u1", weekStart.AddDate(0, 0, 2))
	atStart := rideOn("wk_start", "u1", weekStart)
	atEnd := rideOn("wk_end", "u1", weekEnd) // Exclusive bound
	before := rideOn("wk_before", "u1", weekStart.AddDate(0, 0, -1))
	otherUser := rideOn("wk_other", "u2", weekStart.AddDate(0, 0, 2))

	run := rideOn("wk_run", "u1", weekStart.AddDate(0, 0, 3))
	run.SportType = "run"

	generated := rideOn("wk_done", "u1", weekStart.AddDate(0, 0, 4))
	generated.RouteStatus = models.RouteStatusGenerated

	for _, w := range []*models.Workout{inWindow, atStart, atEnd, before, otherUser, run, generated} {
		if err := storage.SaveWorkout(w); err != nil {
			t.Fatalf("Failed to save %s: %v", w.ID, err)
		}
	}

	pending, err := storage.ListPendingInWindow("u1", weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ListPendingInWindow failed: %v", err)
	}

	got := make(map[string]bool)
	for _, w := range pending {
		got[w.ID] = true
	}

	for _, want := range []string{"wk_in", "wk_start"} {
		if !got[want] {
			t.Errorf("Expected %s in window", want)
		}
	}
	for _, reject := range []string{"wk_end", "wk_before", "wk_other", "wk_run", "wk_done"} {
		if got[reject] {
			t.Errorf("%s should not be listed", reject)
		}
	}
}

func TestRouteOnePerWorkout(t *testing.T) {
	db := newTestDB(t)
	storage := NewRouteStorage(db, arbor.NewLogger())

	first := &models.Route{
		ID:        "rt_1",
		WorkoutID: "wk_1",
		Source:    models.RouteSourceGenerated,
		Name:      "Synthetic loop",
	}
	if err := storage.SaveRoute(first); err != nil {
		t.Fatalf("Failed to save route: %v", err)
	}

	connectorKm := 6.0
	replacement := &models.Route{
		ID:          "rt_2",
		WorkoutID:   "wk_1",
		Source:      models.RouteSourceComposite,
		Name:        "Lakeside loop",
		IsComposite: true,
		ConnectorKm: &connectorKm,
	}
	if err := storage.SaveRoute(replacement); err != nil {
		t.Fatalf("Failed to replace route: %v", err)
	}

	current, err := storage.GetRouteByWorkout("wk_1")
	if err != nil {
		t.Fatalf("Failed to get route: %v", err)
	}
	if current.ID != "rt_2" {
		t.Errorf("Replacement should win, got %s", current.ID)
	}

	// The replaced row must be gone entirely
	var all []models.Route
	if err := db.Store().Find(&all, badgerhold.Where("WorkoutID").Eq("wk_1")); err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("Expected exactly one route per workout, found %d", len(all))
	}

	if err := storage.DeleteRouteByWorkout("wk_1"); err != nil {
		t.Fatalf("Failed to delete route: %v", err)
	}
	if _, err := storage.GetRouteByWorkout("wk_1"); !errors.Is(err, models.ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op
	if err := storage.DeleteRouteByWorkout("wk_1"); err != nil {
		t.Errorf("Second delete should be a no-op: %v", err)
	}
}

func TestRouteCompositeInvariant(t *testing.T) {
	db := newTestDB(t)
	storage := NewRouteStorage(db, arbor.NewLogger())

	missingConnector := &models.Route{
		ID:          "rt_bad",
		WorkoutID:   "wk_1",
		Source:      models.RouteSourceComposite,
		IsComposite: true,
	}
	if err := storage.SaveRoute(missingConnector); err == nil {
		t.Error("Composite route without connector distance should be rejected")
	}

	connectorKm := 6.0
	wrongSource := &models.Route{
		ID:          "rt_bad2",
		WorkoutID:   "wk_1",
		Source:      models.RouteSourceGenerated,
		IsComposite: true,
		ConnectorKm: &connectorKm,
	}
	if err := storage.SaveRoute(wrongSource); err == nil {
		t.Error("Composite flag with generated source should be rejected")
	}
}

func TestPreferencesGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	storage := NewPreferenceStorage(db, arbor.NewLogger())

	prefs, err := storage.GetOrCreate("u1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if !prefs.AvoidHighways || !prefs.PreferBikePaths {
		t.Error("Defaults should avoid highways and prefer bike paths")
	}
	if prefs.SearchRadiusKm != 25 {
		t.Errorf("Default search radius = %v, want 25", prefs.SearchRadiusKm)
	}
	if prefs.HasHome() {
		t.Error("Defaults row must not carry a home coordinate")
	}

	prefs.HomeLat = 47.0
	prefs.HomeLon = 8.0
	if err := storage.Save(prefs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	again, err := storage.GetOrCreate("u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.HomeLat != 47.0 || again.HomeLon != 8.0 {
		t.Error("Second access should return the saved row, not fresh defaults")
	}

	if _, err := storage.GetOrCreate(""); err == nil {
		t.Error("Empty user ID should be rejected")
	}
}

func TestListActiveUserIDs(t *testing.T) {
	db := newTestDB(t)
	storage := NewPlanStorage(db, arbor.NewLogger())

	plans := []*models.TrainingPlan{
		{ID: "pl_1", UserID: "carol", Status: models.PlanStatusActive},
		{ID: "pl_2", UserID: "alice", Status: models.PlanStatusActive},
		{ID: "pl_3", UserID: "alice", Status: models.PlanStatusActive}, // Duplicate user
		{ID: "pl_4", UserID: "bob", Status: models.PlanStatusArchived},
	}
	for _, p := range plans {
		if err := storage.SavePlan(p); err != nil {
			t.Fatalf("Failed to save plan %s: %v", p.ID, err)
		}
	}

	userIDs, err := storage.ListActiveUserIDs()
	if err != nil {
		t.Fatalf("ListActiveUserIDs failed: %v", err)
	}

	want := []string{"alice", "carol"}
	if len(userIDs) != len(want) {
		t.Fatalf("Expected %v, got %v", want, userIDs)
	}
	for i := range want {
		if userIDs[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, userIDs)
			break
		}
	}
}

func TestCachedRouteFindNear(t *testing.T) {
	db := newTestDB(t)
	storage := NewCachedRouteStorage(db, arbor.NewLogger())

	routes := []*models.CachedRoute{
		{ID: "cr_near", Name: "Near loop", StartLat: 47.01, StartLon: 8.01, DistanceKm: 40},
		{ID: "cr_edge", Name: "Edge start", StartLat: 47.10, StartLon: 8.10, DistanceKm: 42},
		{ID: "cr_far", Name: "Far away", StartLat: 48.50, StartLon: 9.50, DistanceKm: 45},
	}
	for _, r := range routes {
		if err := storage.SaveCachedRoute(r); err != nil {
			t.Fatalf("Failed to save cached route %s: %v", r.ID, err)
		}
	}

	found, err := storage.FindNear(46.90, 47.10, 7.90, 8.10)
	if err != nil {
		t.Fatalf("FindNear failed: %v", err)
	}

	got := make(map[string]bool)
	for _, r := range found {
		got[r.ID] = true
	}
	if !got["cr_near"] || !got["cr_edge"] {
		t.Errorf("Expected near and edge routes, got %v", got)
	}
	if got["cr_far"] {
		t.Error("Out-of-box route should not be returned")
	}

	fetched, err := storage.GetCachedRoute("cr_near")
	if err != nil {
		t.Fatalf("GetCachedRoute failed: %v", err)
	}
	if fetched.Name != "Near loop" {
		t.Errorf("Name = %q", fetched.Name)
	}
	if _, err := storage.GetCachedRoute("missing"); !errors.Is(err, models.ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got %v", err)
	}
}
