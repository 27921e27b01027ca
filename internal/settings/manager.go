package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"fortidash/internal/models"
)

// settingsDocument is the on-disk shape of the settings file.
type settingsDocument struct {
	Users          []*models.UserInfo    `json:"users"`
	ReportSettings models.ReportSettings `json:"report_settings"`
	LastUpdated    time.Time             `json:"last_updated"`
}

// Manager owns the user roster and report settings, persisted as one
// JSON document. All methods are safe for concurrent use.
type Manager struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	users  []*models.UserInfo
	report models.ReportSettings
	now    func() time.Time
}

// NewManager loads the settings file, tolerating a missing or
// malformed one. A fresh store is seeded with a default admin user so
// the system is never without a recipient.
func NewManager(path string, logger *zap.Logger) *Manager {
	m := &Manager{
		path:   path,
		logger: logger,
		report: models.DefaultReportSettings(),
		now:    time.Now,
	}
	m.load()
	if len(m.users) == 0 {
		m.users = append(m.users, &models.UserInfo{
			Name:                 "Admin",
			Email:                "admin@example.com",
			Role:                 models.RoleAdmin,
			NotificationsEnabled: true,
			CreatedAt:            m.now(),
		})
		m.save()
	}
	return m
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("Failed to read settings file", zap.Error(err))
		}
		return
	}
	var doc settingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		m.logger.Warn("Settings file is malformed, starting fresh", zap.Error(err))
		return
	}
	for _, u := range doc.Users {
		if u == nil || u.Email == "" {
			continue
		}
		m.users = append(m.users, u)
	}
	if doc.ReportSettings.ProfitabilityThreshold > 0 {
		m.report = doc.ReportSettings
	}
}

// save persists under m.mu (or before the manager is shared).
func (m *Manager) save() {
	doc := settingsDocument{
		Users:          m.users,
		ReportSettings: m.report,
		LastUpdated:    m.now(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		m.logger.Error("Failed to encode settings", zap.Error(err))
		return
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			m.logger.Error("Failed to create settings dir", zap.Error(err))
			return
		}
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		m.logger.Error("Failed to write settings file", zap.Error(err))
	}
}

func (m *Manager) find(email string) *models.UserInfo {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// AddUser registers a user; duplicate emails are rejected.
func (m *Manager) AddUser(user models.UserInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.Email == "" || m.find(user.Email) != nil {
		return false
	}
	user.NotificationsEnabled = true
	user.CreatedAt = m.now()
	m.users = append(m.users, &user)
	m.save()
	m.logger.Info("User added", zap.String("email", user.Email), zap.String("role", user.Role))
	return true
}

// UpdateUser applies a partial update by email.
func (m *Manager) UpdateUser(email string, patch models.UserPatch) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.find(email)
	if u == nil {
		return false
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Agency != nil {
		u.Agency = *patch.Agency
	}
	if patch.NotificationsEnabled != nil {
		u.NotificationsEnabled = *patch.NotificationsEnabled
	}
	m.save()
	return true
}

// RemoveUser deletes a user by email.
func (m *Manager) RemoveUser(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			m.users = append(m.users[:i], m.users[i+1:]...)
			m.save()
			return true
		}
	}
	return false
}

// User returns a copy of the user with the given email.
func (m *Manager) User(email string) (models.UserInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u := m.find(email); u != nil {
		return *u, true
	}
	return models.UserInfo{}, false
}

// Users returns copies of every user in insertion order.
func (m *Manager) Users() []models.UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.UserInfo, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out
}

// ByRole returns users holding the given role.
func (m *Manager) ByRole(role string) []models.UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.UserInfo
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out
}

// NotificationEmails returns addresses of users with notifications on,
// optionally restricted to one role.
func (m *Manager) NotificationEmails(role string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, u := range m.users {
		if !u.NotificationsEnabled {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u.Email)
	}
	return out
}

// ReportSettings returns the current report settings.
func (m *Manager) ReportSettings() models.ReportSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

// UpdateReportSettings replaces the report settings; non-positive
// thresholds fall back to the default.
func (m *Manager) UpdateReportSettings(rs models.ReportSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rs.ProfitabilityThreshold <= 0 {
		rs.ProfitabilityThreshold = models.DefaultReportSettings().ProfitabilityThreshold
	}
	if rs.CurrencySymbol == "" {
		rs.CurrencySymbol = models.DefaultReportSettings().CurrencySymbol
	}
	m.report = rs
	m.save()
}

// Summary reports user counts per role for the status endpoint.
func (m *Manager) Summary() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[string]int{"total": len(m.users)}
	for _, u := range m.users {
		out[u.Role]++
	}
	return out
}
