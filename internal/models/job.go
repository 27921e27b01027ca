package models

import "time"

// Report kinds that can be scheduled or generated on demand.
const (
	ReportDailyPerformance     = "daily_performance"
	ReportWeeklyAggregated     = "weekly_aggregated"
	ReportMonthlyComprehensive = "monthly_comprehensive"
	ReportAgentPerformance     = "agent_performance"
	ReportCampaignAnalysis     = "campaign_analysis"
	ReportExecutiveSummary     = "executive_summary"
)

// Job cadences.
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
)

// Role scopes controlling data visibility in generated reports.
const (
	RoleAgencyOwner = "agency_owner"
	RoleManagement  = "management"
	RoleAdmin       = "admin"
)

// ScheduledJob is one durable recurring report delivery.
type ScheduledJob struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	ReportKind          string     `json:"report_kind"`
	Cadence             string     `json:"cadence"`
	TimeOfDay           string     `json:"time_of_day"` // "HH:MM", local time
	Recipients          []string   `json:"recipients"`
	Enabled             bool       `json:"enabled"`
	RoleScope           string     `json:"role_scope"`
	AgencyFilter        string     `json:"agency_filter,omitempty"`
	IncludeCampaignData bool       `json:"include_campaign_data"`
	NextDueAt           time.Time  `json:"next_due_at"`
	LastRunAt           *time.Time `json:"last_run_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// JobSpec carries the caller-supplied fields for creating a job.
// Validation of kind/cadence values is the caller's concern; the
// registry stores whatever it is given.
type JobSpec struct {
	Name                string   `json:"name"`
	ReportKind          string   `json:"report_kind"`
	Cadence             string   `json:"cadence"`
	TimeOfDay           string   `json:"time_of_day"`
	Recipients          []string `json:"recipients"`
	RoleScope           string   `json:"role_scope"`
	AgencyFilter        string   `json:"agency_filter"`
	IncludeCampaignData bool     `json:"include_campaign_data"`
}

// JobPatch is a partial update; nil fields are left untouched.
// Changing Cadence or TimeOfDay forces a next-due recomputation.
type JobPatch struct {
	Name                *string   `json:"name,omitempty"`
	ReportKind          *string   `json:"report_kind,omitempty"`
	Cadence             *string   `json:"cadence,omitempty"`
	TimeOfDay           *string   `json:"time_of_day,omitempty"`
	Recipients          *[]string `json:"recipients,omitempty"`
	Enabled             *bool     `json:"enabled,omitempty"`
	RoleScope           *string   `json:"role_scope,omitempty"`
	AgencyFilter        *string   `json:"agency_filter,omitempty"`
	IncludeCampaignData *bool     `json:"include_campaign_data,omitempty"`
}

// ReportParams is the parameter set handed to a report generator.
type ReportParams struct {
	StartDate        time.Time
	EndDate          time.Time
	Agency           string
	UserRole         string
	IncludeCampaigns bool
}

// CampaignsVisible reports whether campaign/vendor data may be
// attached for the given role.
func CampaignsVisible(role string) bool {
	return role == RoleManagement || role == RoleAdmin
}
