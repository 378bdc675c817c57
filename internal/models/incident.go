package models

import "time"

// IncidentStatus enumerates the incident handling workflow.
type IncidentStatus string

const (
	IncidentStatusPending       IncidentStatus = "pending"
	IncidentStatusAcknowledged  IncidentStatus = "acknowledged"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusClosed        IncidentStatus = "closed"
	IncidentStatusRejected      IncidentStatus = "rejected"
)

// Incident represents an on-site security incident reported by a guard.
type Incident struct {
	ID          int64          `db:"id" json:"id"`
	ClientID    int64          `db:"client_id" json:"client_id"`
	GuardID     *int64         `db:"guard_id" json:"guard_id,omitempty"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Severity    string         `db:"severity" json:"severity"`
	Status      IncidentStatus `db:"status" json:"status"`
	OccurredAt  time.Time      `db:"occurred_at" json:"occurred_at"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// IncidentFilter captures allowed search parameters for listing incidents.
type IncidentFilter struct {
	Search    string
	ClientID  int64
	Status    string
	Severity  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
