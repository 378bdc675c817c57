package models

import "time"

// ExpenseDecision enumerates expense review outcomes.
type ExpenseDecision string

const (
	ExpenseDecisionPending  ExpenseDecision = "pending"
	ExpenseDecisionApproved ExpenseDecision = "approved"
	ExpenseDecisionRejected ExpenseDecision = "rejected"
)

// ExpenseReview represents a guard-submitted expense awaiting back-office review.
type ExpenseReview struct {
	ID          int64           `db:"id" json:"id"`
	GuardID     int64           `db:"guard_id" json:"guard_id"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Amount      int64           `db:"amount" json:"amount"`
	ReceiptPath *string         `db:"receipt_path" json:"receipt_path,omitempty"`
	Decision    ExpenseDecision `db:"decision" json:"decision"`
	ReviewNote  *string         `db:"review_note" json:"review_note,omitempty"`
	SubmittedAt time.Time       `db:"submitted_at" json:"submitted_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ExpenseFilter captures allowed search parameters for listing expense reviews.
type ExpenseFilter struct {
	Search    string
	GuardID   int64
	Decision  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
