package models

import "time"

// AssignmentStatus enumerates the duty assignment lifecycle.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// Assignment represents a guard's duty assignment at a client site.
type Assignment struct {
	ID         int64            `db:"id" json:"id"`
	GuardID    int64            `db:"guard_id" json:"guard_id"`
	ClientID   int64            `db:"client_id" json:"client_id"`
	SiteName   string           `db:"site_name" json:"site_name"`
	ShiftStart time.Time        `db:"shift_start" json:"shift_start"`
	ShiftEnd   time.Time        `db:"shift_end" json:"shift_end"`
	Status     AssignmentStatus `db:"status" json:"status"`
	Notes      string           `db:"notes" json:"notes"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail includes guard and client display names for list screens.
type AssignmentDetail struct {
	Assignment
	GuardName  string `db:"guard_name" json:"guard_name"`
	ClientName string `db:"client_name" json:"client_name"`
}

// AssignmentFilter captures allowed search parameters for listing assignments.
type AssignmentFilter struct {
	Search    string
	GuardID   int64
	ClientID  int64
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
