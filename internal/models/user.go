package models

import "time"

// UserInfo describes one report recipient.
type UserInfo struct {
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Role                 string    `json:"role"` // agency_owner, management, admin
	Phone                string    `json:"phone,omitempty"`
	Agency               string    `json:"agency,omitempty"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

// UserPatch is a partial user update; nil fields are left untouched.
type UserPatch struct {
	Name                 *string `json:"name,omitempty"`
	Role                 *string `json:"role,omitempty"`
	Phone                *string `json:"phone,omitempty"`
	Agency               *string `json:"agency,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

// ReportSettings tunes report generation.
type ReportSettings struct {
	ProfitabilityThreshold float64 `json:"profitability_threshold"`
	CurrencySymbol         string  `json:"currency_symbol"`
	DateFormat             string  `json:"date_format"`
}

// DefaultReportSettings returns the baseline report settings.
func DefaultReportSettings() ReportSettings {
	return ReportSettings{
		ProfitabilityThreshold: 200,
		CurrencySymbol:         "$",
		DateFormat:             "2006-01-02",
	}
}
