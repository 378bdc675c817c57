package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type guardRepository interface {
	List(ctx context.Context, filter models.GuardFilter) ([]models.Guard, int, error)
	FindByID(ctx context.Context, id int64) (*models.Guard, error)
	ExistsByBadge(ctx context.Context, badge string, excludeID int64) (bool, error)
	Create(ctx context.Context, guard *models.Guard) error
	Update(ctx context.Context, guard *models.Guard) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// CreateGuardRequest holds payload for registering a guard.
type CreateGuardRequest struct {
	BadgeNumber string    `json:"badge_number" validate:"required"`
	FullName    string    `json:"full_name" validate:"required"`
	Gender      string    `json:"gender" validate:"required"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Address     string    `json:"address"`
	HiredAt     time.Time `json:"hired_at" validate:"required"`
}

// UpdateGuardRequest holds payload for updating a guard profile.
type UpdateGuardRequest struct {
	BadgeNumber string    `json:"badge_number" validate:"required"`
	FullName    string    `json:"full_name" validate:"required"`
	Gender      string    `json:"gender" validate:"required"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Address     string    `json:"address"`
	HiredAt     time.Time `json:"hired_at" validate:"required"`
}

// GuardService handles guard roster use-cases.
type GuardService struct {
	repo      guardRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuardService constructs the guard service.
func NewGuardService(repo guardRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GuardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns guards and pagination metadata.
func (s *GuardService) List(ctx context.Context, filter models.GuardFilter) ([]models.Guard, *models.Pagination, error) {
	guards, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guards")
	}
	return guards, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one guard.
func (s *GuardService) Get(ctx context.Context, id int64) (*models.Guard, error) {
	guard, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guard not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guard")
	}
	return guard, nil
}

// Create registers a new guard with a unique badge number.
func (s *GuardService) Create(ctx context.Context, req CreateGuardRequest) (*models.Guard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guard payload")
	}
	exists, err := s.repo.ExistsByBadge(ctx, req.BadgeNumber, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate badge number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "badge number already used")
	}
	guard := &models.Guard{
		BadgeNumber: req.BadgeNumber,
		FullName:    req.FullName,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		HiredAt:     req.HiredAt,
		Active:      true,
	}
	if err := s.repo.Create(ctx, guard); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create guard")
	}
	s.invalidate(ctx)
	return guard, nil
}

// Update modifies a guard profile.
func (s *GuardService) Update(ctx context.Context, id int64, req UpdateGuardRequest) (*models.Guard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guard payload")
	}
	guard, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByBadge(ctx, req.BadgeNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate badge number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "badge number already used")
	}
	guard.BadgeNumber = req.BadgeNumber
	guard.FullName = req.FullName
	guard.Gender = req.Gender
	guard.Phone = req.Phone
	guard.Email = req.Email
	guard.Address = req.Address
	guard.HiredAt = req.HiredAt
	if err := s.repo.Update(ctx, guard); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guard")
	}
	s.invalidate(ctx)
	return guard, nil
}

// SetActive toggles whether the guard can take assignments.
func (s *GuardService) SetActive(ctx context.Context, id int64, active bool) (*models.Guard, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guard activation")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a guard from the roster.
func (s *GuardService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete guard")
	}
	s.invalidate(ctx)
	return nil
}

func (s *GuardService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "list:guard:*")
	}
}
