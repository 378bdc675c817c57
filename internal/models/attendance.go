package models

import "time"

// AttendanceStatus enumerates duty attendance outcomes.
type AttendanceStatus string

const (
	AttendanceStatusPending AttendanceStatus = "pending"
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Attendance records a guard's presence for a scheduled duty date.
type Attendance struct {
	ID           int64            `db:"id" json:"id"`
	AssignmentID int64            `db:"assignment_id" json:"assignment_id"`
	GuardID      int64            `db:"guard_id" json:"guard_id"`
	DutyDate     time.Time        `db:"duty_date" json:"duty_date"`
	CheckIn      *time.Time       `db:"check_in" json:"check_in,omitempty"`
	CheckOut     *time.Time       `db:"check_out" json:"check_out,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Notes        string           `db:"notes" json:"notes"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail joins in the guard name for list screens.
type AttendanceDetail struct {
	Attendance
	GuardName string `db:"guard_name" json:"guard_name"`
	SiteName  string `db:"site_name" json:"site_name"`
}

// AttendanceFilter captures allowed search parameters for listing attendance.
type AttendanceFilter struct {
	Search    string
	GuardID   int64
	Status    string
	Date      *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
