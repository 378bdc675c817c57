package models

import "time"

// ComplaintStatus enumerates complaint handling states.
type ComplaintStatus string

const (
	ComplaintStatusOpen     ComplaintStatus = "open"
	ComplaintStatusInReview ComplaintStatus = "in_review"
	ComplaintStatusResolved ComplaintStatus = "resolved"
)

// Complaint represents a client complaint about guard service delivery.
// Visibility to the client and guard portals is toggled independently of status.
type Complaint struct {
	ID              int64           `db:"id" json:"id"`
	ClientID        int64           `db:"client_id" json:"client_id"`
	GuardID         *int64          `db:"guard_id" json:"guard_id,omitempty"`
	Subject         string          `db:"subject" json:"subject"`
	Body            string          `db:"body" json:"body"`
	Status          ComplaintStatus `db:"status" json:"status"`
	VisibleToClient bool            `db:"visible_to_client" json:"is_visible_to_client"`
	VisibleToGuard  bool            `db:"visible_to_guard" json:"is_visible_to_guard"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// ComplaintFilter captures allowed search parameters for listing complaints.
type ComplaintFilter struct {
	Search    string
	ClientID  int64
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
