package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/garda-ops/gms-api/internal/models"
)

// IncidentRepository manages persistence for incident reports.
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository constructs an IncidentRepository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// List returns incidents matching the provided filters.
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error) {
	base := "FROM incidents i"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ClientID != 0 {
		conditions = append(conditions, fmt.Sprintf("i.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("i.severity = $%d", len(args)+1))
		args = append(args, filter.Severity)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(i.title) LIKE $%d OR LOWER(i.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"occurred_at": "i.occurred_at",
		"severity":    "i.severity",
		"status":      "i.status",
		"created_at":  "i.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "i.occurred_at"
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

	query := fmt.Sprintf(`SELECT i.id, i.client_id, i.guard_id, i.title, i.description, i.severity, i.status, i.occurred_at, i.created_at, i.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var incidents []models.Incident
	if err := r.db.SelectContext(ctx, &incidents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(i.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}
	return incidents, total, nil
}

// FindByID fetches an incident by ID.
func (r *IncidentRepository) FindByID(ctx context.Context, id int64) (*models.Incident, error) {
	const query = `SELECT id, client_id, guard_id, title, description, severity, status, occurred_at, created_at, updated_at
        FROM incidents WHERE id = $1`
	var incident models.Incident
	if err := r.db.GetContext(ctx, &incident, query, id); err != nil {
		return nil, err
	}
	return &incident, nil
}

// Create inserts a new incident and fills in its generated ID.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	now := time.Now().UTC()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	if incident.Status == "" {
		incident.Status = models.IncidentStatusPending
	}
	const query = `INSERT INTO incidents (client_id, guard_id, title, description, severity, status, occurred_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		incident.ClientID, incident.GuardID, incident.Title, incident.Description, incident.Severity,
		incident.Status, incident.OccurredAt, incident.CreatedAt, incident.UpdatedAt,
	).Scan(&incident.ID); err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// Update modifies an existing incident.
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	incident.UpdatedAt = time.Now().UTC()
	const query = `UPDATE incidents SET title = :title, description = :description, severity = :severity,
        occurred_at = :occurred_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, incident); err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	return nil
}

// UpdateStatus moves an incident to a new workflow status.
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id int64, status models.IncidentStatus) error {
	const query = `UPDATE incidents SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	return nil
}

// Delete removes an incident.
func (r *IncidentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	return nil
}
