package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/garda-ops/gms-api/internal/models"
)

// AssignmentRepository manages persistence for duty assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the provided filters.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error) {
	base := "FROM assignments a JOIN guards g ON g.id = a.guard_id JOIN clients c ON c.id = a.client_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.GuardID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.guard_id = $%d", len(args)+1))
		args = append(args, filter.GuardID)
	}
	if filter.ClientID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.shift_start >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.shift_start <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.site_name) LIKE $%d OR LOWER(g.full_name) LIKE $%d OR LOWER(c.company_name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"shift_start": "a.shift_start",
		"status":      "a.status",
		"site_name":   "a.site_name",
		"created_at":  "a.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "a.shift_start"
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

	query := fmt.Sprintf(`SELECT a.id, a.guard_id, a.client_id, a.site_name, a.shift_start, a.shift_end, a.status, a.notes, a.created_at, a.updated_at,
        g.full_name AS guard_name, c.company_name AS client_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(a.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// FindByID fetches an assignment detail by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.guard_id, a.client_id, a.site_name, a.shift_start, a.shift_end, a.status, a.notes, a.created_at, a.updated_at,
        g.full_name AS guard_name, c.company_name AS client_name
        FROM assignments a JOIN guards g ON g.id = a.guard_id JOIN clients c ON c.id = a.client_id
        WHERE a.id = $1`
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new assignment and fills in its generated ID.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusAssigned
	}
	const query = `INSERT INTO assignments (guard_id, client_id, site_name, shift_start, shift_end, status, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		assignment.GuardID, assignment.ClientID, assignment.SiteName, assignment.ShiftStart, assignment.ShiftEnd,
		assignment.Status, assignment.Notes, assignment.CreatedAt, assignment.UpdatedAt,
	).Scan(&assignment.ID); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an existing assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET guard_id = :guard_id, client_id = :client_id, site_name = :site_name,
        shift_start = :shift_start, shift_end = :shift_end, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// UpdateStatus moves an assignment to a new lifecycle status.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error {
	const query = `UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
