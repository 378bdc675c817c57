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

type expenseRepository interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseReview, int, error)
	FindByID(ctx context.Context, id int64) (*models.ExpenseReview, error)
	Create(ctx context.Context, expense *models.ExpenseReview) error
	UpdateDecision(ctx context.Context, id int64, decision models.ExpenseDecision, note *string) error
	Delete(ctx context.Context, id int64) error
}

// CreateExpenseRequest holds payload for submitting an expense for review.
type CreateExpenseRequest struct {
	GuardID     int64     `json:"guard_id" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Amount      int64     `json:"amount" validate:"required,gt=0"`
	ReceiptPath *string   `json:"receipt_path"`
	SubmittedAt time.Time `json:"submitted_at" validate:"required"`
}

// ExpenseService handles expense review use-cases.
type ExpenseService struct {
	repo      expenseRepository
	policy    *lifecycle.Policy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExpenseService constructs the expense service.
func NewExpenseService(repo expenseRepository, policy *lifecycle.Policy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if policy == nil {
		policy = lifecycle.NewPolicy()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, policy: policy, cache: cache, validator: validate, logger: logger}
}

// List returns expense reviews and pagination metadata.
func (s *ExpenseService) List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseReview, *models.Pagination, error) {
	expenses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expense reviews")
	}
	return expenses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one expense review.
func (s *ExpenseService) Get(ctx context.Context, id int64) (*models.ExpenseReview, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expense review")
	}
	return expense, nil
}

// Create submits a new expense for review.
func (s *ExpenseService) Create(ctx context.Context, req CreateExpenseRequest) (*models.ExpenseReview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}
	expense := &models.ExpenseReview{
		GuardID:     req.GuardID,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		ReceiptPath: req.ReceiptPath,
		Decision:    models.ExpenseDecisionPending,
		SubmittedAt: req.SubmittedAt,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create expense review")
	}
	s.invalidate(ctx)
	return expense, nil
}

// Decide approves or rejects a submitted expense.
func (s *ExpenseService) Decide(ctx context.Context, id int64, decision models.ExpenseDecision, note *string) (*models.ExpenseReview, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsLegal(lifecycle.KindExpense, string(current.Decision), string(decision)) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot move expense review from %s to %s", current.Decision, decision))
	}
	if err := s.repo.UpdateDecision(ctx, id, decision, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record expense decision")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes an expense review.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expense review")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ExpenseService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, "list:expense_review:*")
	}
}
