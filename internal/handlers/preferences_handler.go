package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/interfaces"
)

// PreferencesHandler reads and updates user routing preferences
type PreferencesHandler struct {
	prefs  interfaces.PreferenceStorage
	logger arbor.ILogger
}

func NewPreferencesHandler(storage interfaces.StorageManager, logger arbor.ILogger) *PreferencesHandler {
	return &PreferencesHandler{
		prefs:  storage.PreferenceStorage(),
		logger: logger,
	}
}

// GetHandler returns a user's routing preferences, creating the defaults row
// on first access.
func (h *PreferencesHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	userID := PathSegment(r, "/api/users/")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "user id is required")
		return
	}

	prefs, err := h.prefs.GetOrCreate(userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load preferences")
		WriteError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	WriteJSON(w, http.StatusOK, prefs)
}

// updatePreferencesRequest carries the updatable preference fields. Pointers
// distinguish "not sent" from zero values.
type updatePreferencesRequest struct {
	HomeLat          *float64 `json:"home_lat"`
	HomeLon          *float64 `json:"home_lon"`
	AvoidHighways    *bool    `json:"avoid_highways"`
	PreferBikePaths  *bool    `json:"prefer_bike_paths"`
	AvoidHighTraffic *bool    `json:"avoid_high_traffic"`
	MaxGradePercent  *float64 `json:"max_grade_percent"`
	SearchRadiusKm   *float64 `json:"search_radius_km"`
}

// UpdateHandler applies a partial update to a user's routing preferences
func (h *PreferencesHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID := PathSegment(r, "/api/users/")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "user id is required")
		return
	}

	var req updatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.HomeLat != nil && (*req.HomeLat < -90 || *req.HomeLat > 90) {
		WriteError(w, http.StatusBadRequest, "home_lat must be between -90 and 90")
		return
	}
	if req.HomeLon != nil && (*req.HomeLon < -180 || *req.HomeLon > 180) {
		WriteError(w, http.StatusBadRequest, "home_lon must be between -180 and 180")
		return
	}
	if req.MaxGradePercent != nil && *req.MaxGradePercent <= 0 {
		WriteError(w, http.StatusBadRequest, "max_grade_percent must be positive")
		return
	}
	if req.SearchRadiusKm != nil && *req.SearchRadiusKm <= 0 {
		WriteError(w, http.StatusBadRequest, "search_radius_km must be positive")
		return
	}

	prefs, err := h.prefs.GetOrCreate(userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load preferences")
		WriteError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	if req.HomeLat != nil {
		prefs.HomeLat = *req.HomeLat
	}
	if req.HomeLon != nil {
		prefs.HomeLon = *req.HomeLon
	}
	if req.AvoidHighways != nil {
		prefs.AvoidHighways = *req.AvoidHighways
	}
	if req.PreferBikePaths != nil {
		prefs.PreferBikePaths = *req.PreferBikePaths
	}
	if req.AvoidHighTraffic != nil {
		prefs.AvoidHighTraffic = *req.AvoidHighTraffic
	}
	if req.MaxGradePercent != nil {
		prefs.MaxGradePercent = *req.MaxGradePercent
	}
	if req.SearchRadiusKm != nil {
		prefs.SearchRadiusKm = *req.SearchRadiusKm
	}

	if err := h.prefs.Save(prefs); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save preferences")
		WriteError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	WriteJSON(w, http.StatusOK, prefs)
}
