package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fortidash/internal/models"
)

// ReportHandler generates ad hoc reports outside the job registry.
type ReportHandler struct {
	deps *Deps
}

func NewReportHandler(deps *Deps) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// Generate builds a report on demand and optionally emails it.
// POST /api/reports/generate
func (h *ReportHandler) Generate(c echo.Context) error {
	var req models.GenerateReportRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if !validKinds[req.ReportKind] {
		return errorResponse(c, "Unknown report kind")
	}

	params := models.ReportParams{
		Agency:           req.Agency,
		UserRole:         req.UserRole,
		IncludeCampaigns: req.IncludeCampaigns,
	}
	if req.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err != nil {
			return errorResponse(c, "start_date must be YYYY-MM-DD")
		}
		params.StartDate = start
	}
	if req.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local)
		if err != nil {
			return errorResponse(c, "end_date must be YYYY-MM-DD")
		}
		params.EndDate = end
	}
	if params.StartDate.IsZero() != params.EndDate.IsZero() {
		return errorResponse(c, "start_date and end_date must be provided together")
	}
	if !params.StartDate.IsZero() && params.EndDate.Before(params.StartDate) {
		return errorResponse(c, "end_date must not be before start_date")
	}

	html, err := h.deps.Builder.Generate(req.ReportKind, params)
	if err != nil {
		h.deps.Logger.Error("Ad hoc report failed",
			zap.String("kind", req.ReportKind), zap.Error(err))
		return errorResponse(c, "Report generation failed: "+err.Error())
	}

	emailed := false
	if len(req.Recipients) > 0 {
		if err := h.deps.Mailer.SendReport("Ad Hoc Report", req.ReportKind, req.Recipients, html); err != nil {
			return errorResponse(c, "Report generated but email failed: "+err.Error())
		}
		emailed = true
	}

	return successResponse(c, "Report generated", map[string]interface{}{
		"report_kind": req.ReportKind,
		"html":        html,
		"emailed":     emailed,
	})
}
