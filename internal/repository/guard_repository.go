package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/garda-ops/gms-api/internal/models"
)

// GuardRepository manages persistence for guard records.
type GuardRepository struct {
	db *sqlx.DB
}

// NewGuardRepository constructs a GuardRepository.
func NewGuardRepository(db *sqlx.DB) *GuardRepository {
	return &GuardRepository{db: db}
}

// List returns guards matching the provided filters.
func (r *GuardRepository) List(ctx context.Context, filter models.GuardFilter) ([]models.Guard, int, error) {
	base := "FROM guards g"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("g.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(g.full_name) LIKE $%d OR LOWER(g.badge_number) LIKE $%d OR g.phone LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":    "g.full_name",
		"badge_number": "g.badge_number",
		"hired_at":     "g.hired_at",
		"created_at":   "g.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "g.created_at"
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

	query := fmt.Sprintf(`SELECT g.id, g.badge_number, g.full_name, g.gender, g.phone, g.email, g.address, g.hired_at, g.active, g.last_duty_at, g.created_at, g.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var guards []models.Guard
	if err := r.db.SelectContext(ctx, &guards, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list guards: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(g.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count guards: %w", err)
	}
	return guards, total, nil
}

// FindByID fetches a guard by ID.
func (r *GuardRepository) FindByID(ctx context.Context, id int64) (*models.Guard, error) {
	const query = `SELECT id, badge_number, full_name, gender, phone, email, address, hired_at, active, last_duty_at, created_at, updated_at
        FROM guards WHERE id = $1`
	var guard models.Guard
	if err := r.db.GetContext(ctx, &guard, query, id); err != nil {
		return nil, err
	}
	return &guard, nil
}

// ExistsByBadge checks if a guard with the badge number exists, optionally excluding an ID.
func (r *GuardRepository) ExistsByBadge(ctx context.Context, badge string, excludeID int64) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM guards WHERE badge_number = $1"
	args := []interface{}{badge}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += ")"
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check badge number: %w", err)
	}
	return exists, nil
}

// Create inserts a new guard and fills in its generated ID.
func (r *GuardRepository) Create(ctx context.Context, guard *models.Guard) error {
	now := time.Now().UTC()
	guard.CreatedAt = now
	guard.UpdatedAt = now
	const query = `INSERT INTO guards (badge_number, full_name, gender, phone, email, address, hired_at, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		guard.BadgeNumber, guard.FullName, guard.Gender, guard.Phone, guard.Email, guard.Address,
		guard.HiredAt, guard.Active, guard.CreatedAt, guard.UpdatedAt,
	).Scan(&guard.ID); err != nil {
		return fmt.Errorf("create guard: %w", err)
	}
	return nil
}

// Update modifies an existing guard.
func (r *GuardRepository) Update(ctx context.Context, guard *models.Guard) error {
	guard.UpdatedAt = time.Now().UTC()
	const query = `UPDATE guards SET badge_number = :badge_number, full_name = :full_name, gender = :gender,
        phone = :phone, email = :email, address = :address, hired_at = :hired_at, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, guard); err != nil {
		return fmt.Errorf("update guard: %w", err)
	}
	return nil
}

// SetActive toggles the guard's active flag.
func (r *GuardRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE guards SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set guard active: %w", err)
	}
	return nil
}

// Delete removes a guard.
func (r *GuardRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM guards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}
	return nil
}
