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

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error
	Delete(ctx context.Context, id int64) error
}

// CreateAssignmentRequest holds payload for scheduling a duty assignment.
type CreateAssignmentRequest struct {
	GuardID    int64     `json:"guard_id" validate:"required"`
	ClientID   int64     `json:"client_id" validate:"required"`
	SiteName   string    `json:"site_name" validate:"required"`
	ShiftStart time.Time `json:"shift_start" validate:"required"`
	ShiftEnd   time.Time `json:"shift_end" validate:"required"`
	Notes      string    `json:"notes"`
}

// UpdateAssignmentRequest holds payload for rescheduling an assignment.
type UpdateAssignmentRequest struct {
	GuardID    int64     `json:"guard_id" validate:"required"`
	ClientID   int64     `json:"client_id" validate:"required"`
	SiteName   string    `json:"site_name" validate:"required"`
	ShiftStart time.Time `json:"shift_start" validate:"required"`
	ShiftEnd   time.Time `json:"shift_end" validate:"required"`
	Notes      string    `json:"notes"`
}

// AssignmentService handles duty assignment use-cases. Status moves are
// checked against the lifecycle policy before touching the database.
type AssignmentService struct {
	repo      assignmentRepository
	policy    *lifecycle.Policy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo assignmentRepository, policy *lifecycle.Policy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if policy == nil {
		policy = lifecycle.NewPolicy()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, policy: policy, cache: cache, validator: validate, logger: logger}
}

// List returns assignments and pagination metadata.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one assignment with guard and client names resolved.
func (s *AssignmentService) Get(ctx context.Context, id int64) (*models.AssignmentDetail, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create schedules a new assignment in the initial assigned status.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if !req.ShiftEnd.After(req.ShiftStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "shift_end must be after shift_start")
	}
	assignment := &models.Assignment{
		GuardID:    req.GuardID,
		ClientID:   req.ClientID,
		SiteName:   req.SiteName,
		ShiftStart: req.ShiftStart,
		ShiftEnd:   req.ShiftEnd,
		Status:     models.AssignmentStatusAssigned,
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.invalidate(ctx)
	return assignment, nil
}

// Update reschedules an existing assignment. Status is not touched here.
func (s *AssignmentService) Update(ctx context.Context, id int64, req UpdateAssignmentRequest) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment := current.Assignment
	assignment.GuardID = req.GuardID
	assignment.ClientID = req.ClientID
	assignment.SiteName = req.SiteName
	assignment.ShiftStart = req.ShiftStart
	assignment.ShiftEnd = req.ShiftEnd
	assignment.Notes = req.Notes
	if err := s.repo.Update(ctx, &assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// ChangeStatus moves the assignment along its lifecycle. Moves not present
// in the transition table are rejected before any write happens.
func (s *AssignmentService) ChangeStatus(ctx context.Context, id int64, status models.AssignmentStatus) (*models.AssignmentDetail, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsLegal(lifecycle.KindAssignment, string(current.Status), string(status)) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot move assignment from %s to %s", current.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment status")
	}
	s.logger.Info("assignment status changed",
		zap.Int64("assignment_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(status)))
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// AvailableActions lists the legal next moves for an assignment.
func (s *AssignmentService) AvailableActions(ctx context.Context, id int64) ([]lifecycle.Action, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.policy.AvailableActions(lifecycle.KindAssignment, string(current.Status)), nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AssignmentService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "list:assignment:*")
	}
}
