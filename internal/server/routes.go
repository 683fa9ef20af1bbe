package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Workout routes
	mux.HandleFunc("/api/workouts/", s.handleWorkoutRoutes) // GET /{id}/route, POST /{id}/route/generate

	// API routes - Preferences
	mux.HandleFunc("/api/users/", s.handleUserRoutes) // GET/PUT /{id}/preferences

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/trigger-week", s.app.SchedulerHandler.TriggerWeekHandler)
	mux.HandleFunc("/api/scheduler/status", s.app.SchedulerHandler.StatusHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleWorkoutRoutes dispatches /api/workouts/{id}/route and
// /api/workouts/{id}/route/generate
func (s *Server) handleWorkoutRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/route/generate"):
		s.app.RouteHandler.GenerateHandler(w, r)
	case strings.HasSuffix(path, "/route"):
		s.app.RouteHandler.GetRouteHandler(w, r)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}

// handleUserRoutes dispatches /api/users/{id}/preferences
func (s *Server) handleUserRoutes(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/preferences") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.app.PreferencesHandler.GetHandler(w, r)
	case http.MethodPut:
		s.app.PreferencesHandler.UpdateHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
