package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fortidash/internal/mailer"
	"fortidash/internal/models"
	"fortidash/internal/report"
	"fortidash/internal/scheduler"
	"fortidash/internal/settings"
)

// Response helpers shared by all API handlers.
func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}

// Deps bundles everything the API handlers need.
type Deps struct {
	Registry  *scheduler.Registry
	Scheduler *scheduler.Scheduler
	Builder   *report.Builder
	Mailer    *mailer.Mailer
	Settings  *settings.Manager
	Logger    *zap.Logger
}
