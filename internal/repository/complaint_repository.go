package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

// ComplaintRepository manages persistence for client complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs a ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// List returns complaints matching the provided filters.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error) {
	base := "FROM complaints p"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ClientID != 0 {
		conditions = append(conditions, fmt.Sprintf("p.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.subject) LIKE $%d OR LOWER(p.body) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"subject":    "p.subject",
		"status":     "p.status",
		"created_at": "p.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "p.created_at"
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

	query := fmt.Sprintf(`SELECT p.id, p.client_id, p.guard_id, p.subject, p.body, p.status, p.visible_to_client, p.visible_to_guard, p.created_at, p.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(p.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	return complaints, total, nil
}

// FindByID fetches a complaint by ID.
func (r *ComplaintRepository) FindByID(ctx context.Context, id int64) (*models.Complaint, error) {
	const query = `SELECT id, client_id, guard_id, subject, body, status, visible_to_client, visible_to_guard, created_at, updated_at
        FROM complaints WHERE id = $1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		return nil, err
	}
	return &complaint, nil
}

// Create inserts a new complaint and fills in its generated ID.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	now := time.Now().UTC()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	if complaint.Status == "" {
		complaint.Status = models.ComplaintStatusOpen
	}
	const query = `INSERT INTO complaints (client_id, guard_id, subject, body, status, visible_to_client, visible_to_guard, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		complaint.ClientID, complaint.GuardID, complaint.Subject, complaint.Body, complaint.Status,
		complaint.VisibleToClient, complaint.VisibleToGuard, complaint.CreatedAt, complaint.UpdatedAt,
	).Scan(&complaint.ID); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// Update modifies an existing complaint.
func (r *ComplaintRepository) Update(ctx context.Context, complaint *models.Complaint) error {
	complaint.UpdatedAt = time.Now().UTC()
	const query = `UPDATE complaints SET subject = :subject, body = :body, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	return nil
}

// UpdateStatus moves a complaint to a new handling status.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus) error {
	const query = `UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update complaint status: %w", err)
	}
	return nil
}

// SetVisibility toggles one of the complaint's portal visibility flags.
// Each flag is independent of the other and of the status.
func (r *ComplaintRepository) SetVisibility(ctx context.Context, id int64, flag string, value bool) error {
	var column string
	switch flag {
	case "is_visible_to_client":
		column = "visible_to_client"
	case "is_visible_to_guard":
		column = "visible_to_guard"
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown visibility flag: %s", flag))
	}
	query := fmt.Sprintf(`UPDATE complaints SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	if _, err := r.db.ExecContext(ctx, query, id, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set complaint visibility: %w", err)
	}
	return nil
}

// Delete removes a complaint.
func (r *ComplaintRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM complaints WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	return nil
}
