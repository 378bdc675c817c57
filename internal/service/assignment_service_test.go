package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type assignmentRepoStub struct {
	items       []models.AssignmentDetail
	total       int
	byID        map[int64]*models.AssignmentDetail
	listErr     error
	created     []*models.Assignment
	statusCalls []models.AssignmentStatus
	deleted     []int64
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error) {
	return s.items, s.total, s.listErr
}

func (s *assignmentRepoStub) FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error) {
	if detail, ok := s.byID[id]; ok {
		return detail, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = int64(len(s.created) + 1)
	s.created = append(s.created, assignment)
	return nil
}

func (s *assignmentRepoStub) Update(ctx context.Context, assignment *models.Assignment) error {
	return nil
}

func (s *assignmentRepoStub) UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error {
	s.statusCalls = append(s.statusCalls, status)
	if detail, ok := s.byID[id]; ok {
		detail.Status = status
	}
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func assignmentDetail(id int64, status models.AssignmentStatus) *models.AssignmentDetail {
	return &models.AssignmentDetail{
		Assignment: models.Assignment{
			ID:         id,
			GuardID:    10,
			ClientID:   20,
			SiteName:   "Warehouse 4",
			ShiftStart: time.Now(),
			ShiftEnd:   time.Now().Add(8 * time.Hour),
			Status:     status,
		},
		GuardName:  "A. Guard",
		ClientName: "Acme Logistics",
	}
}

func TestAssignmentServiceChangeStatusLegal(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		7: assignmentDetail(7, models.AssignmentStatusAssigned),
	}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	updated, err := svc.ChangeStatus(context.Background(), 7, models.AssignmentStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusActive, updated.Status)
	assert.Equal(t, []models.AssignmentStatus{models.AssignmentStatusActive}, repo.statusCalls)
}

func TestAssignmentServiceChangeStatusIllegal(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		7: assignmentDetail(7, models.AssignmentStatusAssigned),
	}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	_, err := svc.ChangeStatus(context.Background(), 7, models.AssignmentStatusCompleted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusCalls)
}

func TestAssignmentServiceChangeStatusNoOp(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		7: assignmentDetail(7, models.AssignmentStatusActive),
	}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	_, err := svc.ChangeStatus(context.Background(), 7, models.AssignmentStatusActive)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceChangeStatusTerminal(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		7: assignmentDetail(7, models.AssignmentStatusCancelled),
	}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	for _, target := range []models.AssignmentStatus{
		models.AssignmentStatusAssigned,
		models.AssignmentStatusActive,
		models.AssignmentStatusCompleted,
	} {
		_, err := svc.ChangeStatus(context.Background(), 7, target)
		require.Error(t, err, "cancelled -> %s must be rejected", target)
	}
}

func TestAssignmentServiceCreateValidates(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAssignmentServiceCreateRejectsInvertedShift(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	start := time.Now()
	_, err := svc.Create(context.Background(), CreateAssignmentRequest{
		GuardID:    10,
		ClientID:   20,
		SiteName:   "Warehouse 4",
		ShiftStart: start,
		ShiftEnd:   start.Add(-time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCreateDefaultsStatus(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	start := time.Now()
	created, err := svc.Create(context.Background(), CreateAssignmentRequest{
		GuardID:    10,
		ClientID:   20,
		SiteName:   "Warehouse 4",
		ShiftStart: start,
		ShiftEnd:   start.Add(8 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusAssigned, created.Status)
}

func TestAssignmentServiceGetNotFound(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAvailableActions(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		7: assignmentDetail(7, models.AssignmentStatusActive),
	}}
	svc := NewAssignmentService(repo, nil, nil, nil, nil)

	actions, err := svc.AvailableActions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "completed", actions[0].To)
	assert.Equal(t, "Mark Completed", actions[0].Label)
	assert.Equal(t, "cancelled", actions[1].To)
	assert.Equal(t, "Cancel Assignment", actions[1].Label)
}
