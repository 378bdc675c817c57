package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type complaintRepoStub struct {
	byID            map[int64]*models.Complaint
	visibilityCalls []string
}

func (s *complaintRepoStub) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error) {
	items := make([]models.Complaint, 0, len(s.byID))
	for _, complaint := range s.byID {
		items = append(items, *complaint)
	}
	return items, len(items), nil
}

func (s *complaintRepoStub) FindByID(ctx context.Context, id int64) (*models.Complaint, error) {
	if complaint, ok := s.byID[id]; ok {
		copied := *complaint
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *complaintRepoStub) Create(ctx context.Context, complaint *models.Complaint) error {
	complaint.ID = int64(len(s.byID) + 1)
	s.byID[complaint.ID] = complaint
	return nil
}

func (s *complaintRepoStub) Update(ctx context.Context, complaint *models.Complaint) error {
	return nil
}

func (s *complaintRepoStub) UpdateStatus(ctx context.Context, id int64, status models.ComplaintStatus) error {
	if complaint, ok := s.byID[id]; ok {
		complaint.Status = status
	}
	return nil
}

func (s *complaintRepoStub) SetVisibility(ctx context.Context, id int64, flag string, value bool) error {
	s.visibilityCalls = append(s.visibilityCalls, flag)
	complaint, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	switch flag {
	case "is_visible_to_client":
		complaint.VisibleToClient = value
	case "is_visible_to_guard":
		complaint.VisibleToGuard = value
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown visibility flag: "+flag)
	}
	return nil
}

func (s *complaintRepoStub) Delete(ctx context.Context, id int64) error {
	delete(s.byID, id)
	return nil
}

func openComplaint(id int64) *models.Complaint {
	return &models.Complaint{
		ID:       id,
		ClientID: 20,
		Subject:  "Late arrival",
		Body:     "Guard arrived 40 minutes late",
		Status:   models.ComplaintStatusOpen,
	}
}

func TestComplaintServiceStatusMovesFreely(t *testing.T) {
	repo := &complaintRepoStub{byID: map[int64]*models.Complaint{1: openComplaint(1)}}
	svc := NewComplaintService(repo, nil, nil, nil, nil)

	updated, err := svc.ChangeStatus(context.Background(), 1, models.ComplaintStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusResolved, updated.Status)

	// permissive kinds allow moving back
	updated, err = svc.ChangeStatus(context.Background(), 1, models.ComplaintStatusInReview)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusInReview, updated.Status)
}

func TestComplaintServiceStatusNoOpRejected(t *testing.T) {
	repo := &complaintRepoStub{byID: map[int64]*models.Complaint{1: openComplaint(1)}}
	svc := NewComplaintService(repo, nil, nil, nil, nil)

	_, err := svc.ChangeStatus(context.Background(), 1, models.ComplaintStatusOpen)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestComplaintServiceVisibilityIndependentOfStatus(t *testing.T) {
	repo := &complaintRepoStub{byID: map[int64]*models.Complaint{1: openComplaint(1)}}
	svc := NewComplaintService(repo, nil, nil, nil, nil)

	updated, err := svc.SetVisibility(context.Background(), 1, "is_visible_to_client", true)
	require.NoError(t, err)
	assert.True(t, updated.VisibleToClient)
	assert.False(t, updated.VisibleToGuard)
	assert.Equal(t, models.ComplaintStatusOpen, updated.Status)

	updated, err = svc.SetVisibility(context.Background(), 1, "is_visible_to_guard", true)
	require.NoError(t, err)
	assert.True(t, updated.VisibleToClient)
	assert.True(t, updated.VisibleToGuard)
}

func TestComplaintServiceVisibilityUnknownFlag(t *testing.T) {
	repo := &complaintRepoStub{byID: map[int64]*models.Complaint{1: openComplaint(1)}}
	svc := NewComplaintService(repo, nil, nil, nil, nil)

	_, err := svc.SetVisibility(context.Background(), 1, "is_visible_to_vendor", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestComplaintServiceCreateStartsHidden(t *testing.T) {
	repo := &complaintRepoStub{byID: map[int64]*models.Complaint{}}
	svc := NewComplaintService(repo, nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), CreateComplaintRequest{
		ClientID: 20,
		Subject:  "Gate left open",
		Body:     "Rear gate found unlocked during patrol",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusOpen, created.Status)
	assert.False(t, created.VisibleToClient)
	assert.False(t, created.VisibleToGuard)
}
