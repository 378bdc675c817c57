package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/lifecycle"
	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type complaintRepository interface {
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error)
	FindByID(ctx context.Context, id int64) (*models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	Update(ctx context.Context, complaint *models.Complaint) error
	UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus) error
	SetVisibility(ctx context.Context, id int64, flag string, value bool) error
	Delete(ctx context.Context, id int64) error
}

// CreateComplaintRequest holds payload for filing a client complaint.
type CreateComplaintRequest struct {
	ClientID int64  `json:"client_id" validate:"required"`
	GuardID  *int64 `json:"guard_id"`
	Subject  string `json:"subject" validate:"required"`
	Body     string `json:"body" validate:"required"`
}

// ComplaintService handles complaint use-cases. Portal visibility flags are
// independent of the handling status and of each other.
type ComplaintService struct {
	repo      complaintRepository
	policy    *lifecycle.Policy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComplaintService constructs the complaint service.
func NewComplaintService(repo complaintRepository, policy *lifecycle.Policy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if policy == nil {
		policy = lifecycle.NewPolicy()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{repo: repo, policy: policy, cache: cache, validator: validate, logger: logger}
}

// List returns complaints and pagination metadata.
func (s *ComplaintService) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, *models.Pagination, error) {
	complaints, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one complaint.
func (s *ComplaintService) Get(ctx context.Context, id int64) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	return complaint, nil
}

// Create files a new complaint. New complaints start hidden from both portals.
func (s *ComplaintService) Create(ctx context.Context, req CreateComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	complaint := &models.Complaint{
		ClientID: req.ClientID,
		GuardID:  req.GuardID,
		Subject:  req.Subject,
		Body:     req.Body,
		Status:   models.ComplaintStatusOpen,
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}
	s.invalidate(ctx)
	return complaint, nil
}

// ChangeStatus moves a complaint through its handling workflow.
func (s *ComplaintService) ChangeStatus(ctx context.Context, id int64, status models.ComplaintStatus) (*models.Complaint, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsLegal(lifecycle.KindComplaint, string(current.Status), string(status)) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot move complaint from %s to %s", current.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint status")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// SetVisibility toggles one of the complaint's portal visibility flags.
func (s *ComplaintService) SetVisibility(ctx context.Context, id int64, flag string, value bool) (*models.Complaint, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetVisibility(ctx, id, flag, value); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a complaint.
func (s *ComplaintService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete complaint")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ComplaintService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "list:complaint:*")
	}
}
