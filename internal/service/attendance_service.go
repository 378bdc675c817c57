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

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.AttendanceDetail, error)
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
	UpdateStatus(ctx context.Context, id int64, status models.AttendanceStatus) error
	Delete(ctx context.Context, id int64) error
}

// CreateAttendanceRequest holds payload for recording a duty attendance row.
type CreateAttendanceRequest struct {
	AssignmentID int64      `json:"assignment_id" validate:"required"`
	GuardID      int64      `json:"guard_id" validate:"required"`
	DutyDate     time.Time  `json:"duty_date" validate:"required"`
	CheckIn      *time.Time `json:"check_in"`
	CheckOut     *time.Time `json:"check_out"`
	Notes        string     `json:"notes"`
}

// AttendanceService handles attendance use-cases.
type AttendanceService struct {
	repo      attendanceRepository
	policy    *lifecycle.Policy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, policy *lifecycle.Policy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if policy == nil {
		policy = lifecycle.NewPolicy()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, policy: policy, cache: cache, validator: validate, logger: logger}
}

// List returns attendance rows and pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one attendance row.
func (s *AttendanceService) Get(ctx context.Context, id int64) (*models.AttendanceDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return record, nil
}

// Create records a new attendance row in pending status.
func (s *AttendanceService) Create(ctx context.Context, req CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	record := &models.Attendance{
		AssignmentID: req.AssignmentID,
		GuardID:      req.GuardID,
		DutyDate:     req.DutyDate,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		Status:       models.AttendanceStatusPending,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}
	s.invalidate(ctx)
	return record, nil
}

// ChangeStatus marks an attendance row present, absent or late. Any known
// status is reachable from any other, only no-op moves are rejected.
func (s *AttendanceService) ChangeStatus(ctx context.Context, id int64, status models.AttendanceStatus) (*models.AttendanceDetail, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsLegal(lifecycle.KindAttendance, string(current.Status), string(status)) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot move attendance from %s to %s", current.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance status")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes an attendance row.
func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AttendanceService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "list:attendance:*")
	}
}
