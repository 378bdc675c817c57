package models

import "time"

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportType selects which dataset is rendered.
type ExportType string

const (
	ExportTypeGuardRoster    ExportType = "guard_roster"
	ExportTypeAssignments    ExportType = "assignment_schedule"
	ExportTypeIncidentLog    ExportType = "incident_log"
	ExportTypeExpenseSummary ExportType = "expense_summary"
)

// ExportStatus tracks an export job through the queue.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "pending"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportParams narrow the exported dataset.
type ExportParams struct {
	Format   ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ClientID int64        `json:"client_id,omitempty"`
	GuardID  int64        `json:"guard_id,omitempty"`
	DateFrom *time.Time   `json:"date_from,omitempty"`
	DateTo   *time.Time   `json:"date_to,omitempty"`
}

// ExportJob is a queued export request and its progress.
type ExportJob struct {
	ID          string       `json:"id"`
	Type        ExportType   `json:"type"`
	Params      ExportParams `json:"params"`
	Status      ExportStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
