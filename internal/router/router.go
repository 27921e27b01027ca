package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"fortidash/internal/handler/api"
	"fortidash/internal/middleware"
)

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, deps *api.Deps, apiKey string) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Handlers
	jobHandler := api.NewJobHandler(deps)
	reportHandler := api.NewReportHandler(deps)
	statusHandler := api.NewStatusHandler(deps)
	userHandler := api.NewUserHandler(deps)

	// API group with auth middleware
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(apiKey))

	// Scheduled jobs
	apiGroup.GET("/jobs", jobHandler.List)
	apiGroup.POST("/jobs", jobHandler.Create)
	apiGroup.GET("/jobs/:id", jobHandler.Get)
	apiGroup.PUT("/jobs/:id", jobHandler.Update)
	apiGroup.DELETE("/jobs/:id", jobHandler.Delete)
	apiGroup.POST("/jobs/:id/run", jobHandler.Run)

	// Ad hoc reports
	apiGroup.POST("/reports/generate", reportHandler.Generate)

	// Scheduler and email diagnostics
	apiGroup.GET("/scheduler/status", statusHandler.SchedulerStatus)
	apiGroup.POST("/scheduler/run", statusHandler.RunPass)
	apiGroup.POST("/email/test", statusHandler.EmailTest)

	// Recipients and report settings
	apiGroup.GET("/users", userHandler.List)
	apiGroup.POST("/users", userHandler.Create)
	apiGroup.PUT("/users/:email", userHandler.Update)
	apiGroup.DELETE("/users/:email", userHandler.Delete)
	apiGroup.GET("/settings/report", userHandler.ReportSettings)
	apiGroup.PUT("/settings/report", userHandler.UpdateReportSettings)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
