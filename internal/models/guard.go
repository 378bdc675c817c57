package models

import "time"

// Guard represents a security guard employed by the agency.
type Guard struct {
	ID          int64      `db:"id" json:"id"`
	BadgeNumber string     `db:"badge_number" json:"badge_number"`
	FullName    string     `db:"full_name" json:"full_name"`
	Gender      string     `db:"gender" json:"gender"`
	Phone       string     `db:"phone" json:"phone"`
	Email       string     `db:"email" json:"email"`
	Address     string     `db:"address" json:"address"`
	HiredAt     time.Time  `db:"hired_at" json:"hired_at"`
	Active      bool       `db:"active" json:"active"`
	LastDutyAt  *time.Time `db:"last_duty_at" json:"last_duty_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// GuardFilter captures allowed search parameters for listing guards.
type GuardFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
