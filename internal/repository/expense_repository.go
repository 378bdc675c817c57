package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/garda-ops/gms-api/internal/models"
)

// ExpenseRepository manages persistence for expense reviews.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs an ExpenseRepository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns expense reviews matching the provided filters.
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseReview, int, error) {
	base := "FROM expense_reviews e JOIN guards g ON g.id = e.guard_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.GuardID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.guard_id = $%d", len(args)+1))
		args = append(args, filter.GuardID)
	}
	if filter.Decision != "" {
		conditions = append(conditions, fmt.Sprintf("e.decision = $%d", len(args)+1))
		args = append(args, filter.Decision)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.description) LIKE $%d OR LOWER(e.category) LIKE $%d OR LOWER(g.full_name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"submitted_at": "e.submitted_at",
		"amount":       "e.amount",
		"decision":     "e.decision",
		"created_at":   "e.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.submitted_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.guard_id, e.category, e.description, e.amount, e.receipt_path, e.decision, e.review_note, e.submitted_at, e.created_at, e.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var expenses []models.ExpenseReview
	if err := r.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list expense reviews: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(e.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count expense reviews: %w", err)
	}
	return expenses, total, nil
}

// FindByID fetches an expense review by ID.
func (r *ExpenseRepository) FindByID(ctx context.Context, id int64) (*models.ExpenseReview, error) {
	const query = `SELECT id, guard_id, category, description, amount, receipt_path, decision, review_note, submitted_at, created_at, updated_at
        FROM expense_reviews WHERE id = $1`
	var expense models.ExpenseReview
	if err := r.db.GetContext(ctx, &expense, query, id); err != nil {
		return nil, err
	}
	return &expense, nil
}

// Create inserts a new expense review and fills in its generated ID.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.ExpenseReview) error {
	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	if expense.Decision == "" {
		expense.Decision = models.ExpenseDecisionPending
	}
	if expense.SubmittedAt.IsZero() {
		expense.SubmittedAt = now
	}
	const query = `INSERT INTO expense_reviews (guard_id, category, description, amount, receipt_path, decision, review_note, submitted_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		expense.GuardID, expense.Category, expense.Description, expense.Amount, expense.ReceiptPath,
		expense.Decision, expense.ReviewNote, expense.SubmittedAt, expense.CreatedAt, expense.UpdatedAt,
	).Scan(&expense.ID); err != nil {
		return fmt.Errorf("create expense review: %w", err)
	}
	return nil
}

// UpdateDecision records the reviewer's decision and optional note.
func (r *ExpenseRepository) UpdateDecision(ctx context.Context, id int64, decision models.ExpenseDecision, note *string) error {
	const query = `UPDATE expense_reviews SET decision = $2, review_note = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, decision, note, time.Now().UTC()); err != nil {
		return fmt.Errorf("update expense decision: %w", err)
	}
	return nil
}

// Delete removes an expense review.
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expense_reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete expense review: %w", err)
	}
	return nil
}
