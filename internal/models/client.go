package models

import "time"

// Client represents a customer site owner contracting guard services.
type Client struct {
	ID          int64     `db:"id" json:"id"`
	CompanyName string    `db:"company_name" json:"company_name"`
	ContactName string    `db:"contact_name" json:"contact_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Address     string    `db:"address" json:"address"`
	City        string    `db:"city" json:"city"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClientFilter captures allowed search parameters for listing clients.
type ClientFilter struct {
	Search    string
	City      string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
