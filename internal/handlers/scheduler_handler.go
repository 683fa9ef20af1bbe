package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/veloroute/internal/common"
	"github.com/ternarybob/veloroute/internal/interfaces"
)

// SchedulerHandler exposes the weekly batch trigger and status
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

func NewSchedulerHandler(scheduler interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// TriggerWeekHandler starts a weekly batch run outside the cadence
func (h *SchedulerHandler) TriggerWeekHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	h.logger.Info().Msg("Manual weekly batch trigger requested")

	common.SafeGo(h.logger, "manual-weekly-batch", func() {
		report, err := h.scheduler.RunWeeklyBatch(context.Background())
		if err != nil {
			h.logger.Error().Err(err).Msg("Manual weekly batch failed")
			return
		}
		h.logger.Info().
			Int("users", len(report.Users)).
			Bool("deadline_hit", report.DeadlineHit).
			Msg("Manual weekly batch finished")
	})

	WriteAccepted(w, "weekly batch started")
}

// StatusHandler returns the cadence job status
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}
