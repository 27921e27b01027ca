package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fortidash/internal/models"
)

// UserHandler manages report recipients and report settings.
type UserHandler struct {
	deps *Deps
}

func NewUserHandler(deps *Deps) *UserHandler {
	return &UserHandler{deps: deps}
}

var validRoles = map[string]bool{
	models.RoleAgencyOwner: true,
	models.RoleManagement:  true,
	models.RoleAdmin:       true,
}

// List returns every user.
// GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	return successResponse(c, "Users retrieved", h.deps.Settings.Users())
}

// Create registers a user.
// POST /api/users
func (h *UserHandler) Create(c echo.Context) error {
	var req models.AddUserRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Name == "" || !strings.Contains(req.Email, "@") {
		return errorResponse(c, "Name and a valid email are required")
	}
	if !validRoles[req.Role] {
		return errorResponse(c, "Role must be agency_owner, management or admin")
	}

	ok := h.deps.Settings.AddUser(models.UserInfo{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Phone:  req.Phone,
		Agency: req.Agency,
	})
	if !ok {
		return errorResponse(c, "A user with that email already exists")
	}
	h.deps.Logger.Info("User created", zap.String("email", req.Email))

	user, _ := h.deps.Settings.User(req.Email)
	return successResponse(c, "User created", user)
}

// Update applies a partial update by email.
// PUT /api/users/:email
func (h *UserHandler) Update(c echo.Context) error {
	var patch models.UserPatch
	if err := c.Bind(&patch); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if patch.Role != nil && !validRoles[*patch.Role] {
		return errorResponse(c, "Role must be agency_owner, management or admin")
	}

	email := c.Param("email")
	if !h.deps.Settings.UpdateUser(email, patch) {
		return errorResponse(c, "User not found")
	}
	user, _ := h.deps.Settings.User(email)
	return successResponse(c, "User updated", user)
}

// Delete removes a user by email.
// DELETE /api/users/:email
func (h *UserHandler) Delete(c echo.Context) error {
	if !h.deps.Settings.RemoveUser(c.Param("email")) {
		return errorResponse(c, "User not found")
	}
	return successResponse(c, "User deleted", nil)
}

// ReportSettings returns the current report settings.
// GET /api/settings/report
func (h *UserHandler) ReportSettings(c echo.Context) error {
	return successResponse(c, "Report settings", h.deps.Settings.ReportSettings())
}

// UpdateReportSettings replaces the report settings.
// PUT /api/settings/report
func (h *UserHandler) UpdateReportSettings(c echo.Context) error {
	var rs models.ReportSettings
	if err := c.Bind(&rs); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	h.deps.Settings.UpdateReportSettings(rs)
	return successResponse(c, "Report settings updated", h.deps.Settings.ReportSettings())
}
