package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/lifecycle"
	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type incidentRepository interface {
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error)
	FindByID(ctx context.Context, id int64) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident) error
	Update(ctx context.Context, incident *models.Incident) error
	UpdateStatus(ctx context.Context, id int64, status models.IncidentStatus) error
	Delete(ctx context.Context, id int64) error
}

// CreateIncidentRequest holds payload for reporting a site incident.
type CreateIncidentRequest struct {
	ClientID    int64     `json:"client_id" validate:"required"`
	GuardID     *int64    `json:"guard_id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Severity    string    `json:"severity" validate:"required,oneof=low medium high critical"`
	OccurredAt  time.Time `json:"occurred_at" validate:"required"`
}

// IncidentService handles incident report use-cases.
type IncidentService struct {
	repo      incidentRepository
	policy    *lifecycle.Policy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIncidentService constructs the incident service.
func NewIncidentService(repo incidentRepository, policy *lifecycle.Policy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *IncidentService {
	if policy == nil {
		policy = lifecycle.NewPolicy()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{repo: repo, policy: policy, cache: cache, validator: validate, logger: logger}
}

// List returns incidents and pagination metadata.
func (s *IncidentService) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, *models.Pagination, error) {
	incidents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incidents")
	}
	return incidents, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one incident.
func (s *IncidentService) Get(ctx context.Context, id int64) (*models.Incident, error) {
	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "incident not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incident")
	}
	return incident, nil
}

// Create files a new incident report in pending status.
func (s *IncidentService) Create(ctx context.Context, req CreateIncidentRequest) (*models.Incident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid incident payload")
	}
	incident := &models.Incident{
		ClientID:    req.ClientID,
		GuardID:     req.GuardID,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Status:      models.IncidentStatusPending,
		OccurredAt:  req.OccurredAt,
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create incident")
	}
	s.invalidate(ctx)
	return incident, nil
}

// ChangeStatus moves an incident through its handling workflow.
func (s *IncidentService) ChangeStatus(ctx context.Context, id int64, status models.IncidentStatus) (*models.Incident, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsLegal(lifecycle.KindIncident, string(current.Status), string(status)) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot move incident from %s to %s", current.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update incident status")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes an incident report.
func (s *IncidentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete incident")
	}
	s.invalidate(ctx)
	return nil
}

func (s *IncidentService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "list:incident:*")
	}
}
