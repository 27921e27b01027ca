package models

// APIResponse is the standard envelope for all API endpoints.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

// GenerateReportRequest asks for an ad hoc report, bypassing the job registry.
type GenerateReportRequest struct {
	ReportKind       string   `json:"report_kind"`
	StartDate        string   `json:"start_date,omitempty"` // "2006-01-02"
	EndDate          string   `json:"end_date,omitempty"`
	Agency           string   `json:"agency,omitempty"`
	UserRole         string   `json:"user_role,omitempty"`
	IncludeCampaigns bool     `json:"include_campaigns"`
	Recipients       []string `json:"recipients,omitempty"` // when set, the result is also emailed
}

// AddUserRequest creates a recipient.
type AddUserRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Phone  string `json:"phone,omitempty"`
	Agency string `json:"agency,omitempty"`
}
