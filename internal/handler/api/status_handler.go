package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatusHandler exposes scheduler state and email diagnostics.
type StatusHandler struct {
	deps *Deps
}

func NewStatusHandler(deps *Deps) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// SchedulerStatus reports job counts and loop state.
// GET /api/scheduler/status
func (h *StatusHandler) SchedulerStatus(c echo.Context) error {
	return successResponse(c, "Scheduler status", h.deps.Scheduler.Summarize())
}

// RunPass forces one due-job sweep right now.
// POST /api/scheduler/run
func (h *StatusHandler) RunPass(c echo.Context) error {
	ran, failed := h.deps.Scheduler.RunPass()
	h.deps.Logger.Info("Manual scheduler pass",
		zap.Int("ran", ran), zap.Int("failed", failed))
	return successResponse(c, "Pass completed", map[string]int{
		"ran":    ran,
		"failed": failed,
	})
}

// EmailTest sends a self-addressed test message.
// POST /api/email/test
func (h *StatusHandler) EmailTest(c echo.Context) error {
	if err := h.deps.Mailer.Test(); err != nil {
		return errorResponse(c, "Email test failed: "+err.Error())
	}
	return successResponse(c, "Test email sent", nil)
}
