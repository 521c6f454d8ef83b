package core

import "time"

type CheckStatus string

const (
	StatusOK      CheckStatus = "ok"
	StatusWarning CheckStatus = "warning"
	StatusError   CheckStatus = "error"
	StatusSkipped CheckStatus = "skipped"
)

type ReportState string

const (
	StateCompleted          ReportState = "completed"
	StatePartiallyCompleted ReportState = "partially_completed"
	StateFailed             ReportState = "failed"
)

// CheckResult is one check unit's outcome. A unit whose required feature is
// absent resolves to skipped, never error.
type CheckResult struct {
	Name      string      `json:"name"`
	Status    CheckStatus `json:"status"`
	Message   string      `json:"message"`
	Details   []string    `json:"details,omitempty"`
	Weight    float64     `json:"weight"`
	Duration  float64     `json:"duration_ms"`
	CheckedAt time.Time   `json:"checked_at"`
}

type ReportSummary struct {
	TotalChecks int `json:"total_checks"`
	OK          int `json:"ok"`
	Warnings    int `json:"warnings"`
	Errors      int `json:"errors"`
	Skipped     int `json:"skipped"`
}

// HealthReport aggregates the results of one invocation. Results keep
// execution order. Score is absent when every check was skipped.
type HealthReport struct {
	Results          []CheckResult `json:"checks"`
	Score            *float64      `json:"score,omitempty"`
	Grade            string        `json:"grade,omitempty"`
	InsufficientData bool          `json:"insufficient_data,omitempty"`
	State            ReportState   `json:"state"`
	Summary          ReportSummary `json:"summary"`

	OrgIdentifier   string    `json:"org_identifier"`
	APIVersionUsed  string    `json:"api_version_used"`
	ChecksRequested int       `json:"checks_requested"`
	ChecksExecuted  int       `json:"checks_executed"`
	GeneratedAt     time.Time `json:"generated_at"`
}
