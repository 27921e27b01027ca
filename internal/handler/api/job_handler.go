package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fortidash/internal/models"
)

// JobHandler manages the scheduled report jobs.
type JobHandler struct {
	deps *Deps
}

func NewJobHandler(deps *Deps) *JobHandler {
	return &JobHandler{deps: deps}
}

var validKinds = map[string]bool{
	models.ReportDailyPerformance:     true,
	models.ReportWeeklyAggregated:     true,
	models.ReportMonthlyComprehensive: true,
	models.ReportAgentPerformance:     true,
	models.ReportCampaignAnalysis:     true,
	models.ReportExecutiveSummary:     true,
}

var validCadences = map[string]bool{
	models.CadenceDaily:   true,
	models.CadenceWeekly:  true,
	models.CadenceMonthly: true,
}

// List returns every job in creation order.
// GET /api/jobs
func (h *JobHandler) List(c echo.Context) error {
	return successResponse(c, "Jobs retrieved", h.deps.Registry.List())
}

// Get returns one job by id.
// GET /api/jobs/:id
func (h *JobHandler) Get(c echo.Context) error {
	job, ok := h.deps.Registry.Get(c.Param("id"))
	if !ok {
		return errorResponse(c, "Job not found")
	}
	return successResponse(c, "Job retrieved", job)
}

// Create registers a new scheduled job.
// POST /api/jobs
func (h *JobHandler) Create(c echo.Context) error {
	var spec models.JobSpec
	if err := c.Bind(&spec); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if spec.Name == "" {
		return errorResponse(c, "Job name is required")
	}
	if !validKinds[spec.ReportKind] {
		return errorResponse(c, "Unknown report kind")
	}
	if !validCadences[spec.Cadence] {
		return errorResponse(c, "Cadence must be daily, weekly or monthly")
	}
	if len(spec.Recipients) == 0 {
		return errorResponse(c, "At least one recipient is required")
	}

	id := h.deps.Registry.Add(spec)
	h.deps.Logger.Info("Job created",
		zap.String("id", id),
		zap.String("name", spec.Name),
		zap.String("kind", spec.ReportKind))

	job, _ := h.deps.Registry.Get(id)
	return successResponse(c, "Job created", job)
}

// Update applies a partial update to a job.
// PUT /api/jobs/:id
func (h *JobHandler) Update(c echo.Context) error {
	var patch models.JobPatch
	if err := c.Bind(&patch); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if patch.ReportKind != nil && !validKinds[*patch.ReportKind] {
		return errorResponse(c, "Unknown report kind")
	}
	if patch.Cadence != nil && !validCadences[*patch.Cadence] {
		return errorResponse(c, "Cadence must be daily, weekly or monthly")
	}

	id := c.Param("id")
	if !h.deps.Registry.Update(id, patch) {
		return errorResponse(c, "Job not found")
	}
	job, _ := h.deps.Registry.Get(id)
	return successResponse(c, "Job updated", job)
}

// Delete removes a job.
// DELETE /api/jobs/:id
func (h *JobHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if !h.deps.Registry.Remove(id) {
		return errorResponse(c, "Job not found")
	}
	h.deps.Logger.Info("Job deleted", zap.String("id", id))
	return successResponse(c, "Job deleted", nil)
}

// Run executes one job immediately, regardless of its schedule.
// POST /api/jobs/:id/run
func (h *JobHandler) Run(c echo.Context) error {
	id := c.Param("id")
	if err := h.deps.Scheduler.RunJob(id); err != nil {
		return errorResponse(c, err.Error())
	}
	job, _ := h.deps.Registry.Get(id)
	return successResponse(c, "Job executed", job)
}
