package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garda-ops/gms-api/internal/console"
	"github.com/garda-ops/gms-api/internal/lifecycle"
	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheKeyForIsOrderIndependent(t *testing.T) {
	a := console.Query{Page: 2, PerPage: 20, Filters: map[string]string{"status": "active", "search": "gate"}}
	b := console.Query{Page: 2, PerPage: 20, Filters: map[string]string{"search": "gate", "status": "active"}}

	assert.Equal(t, cacheKeyFor(lifecycle.KindAssignment, a), cacheKeyFor(lifecycle.KindAssignment, b))
	assert.NotEqual(t,
		cacheKeyFor(lifecycle.KindAssignment, a),
		cacheKeyFor(lifecycle.KindAssignment, console.Query{Page: 3, PerPage: 20, Filters: a.Filters}))
}

func newCachedAssignmentGateway(repo *assignmentRepoStub, cacheRepo CacheRepository) *AssignmentGateway {
	svc := NewAssignmentService(repo, nil, nil, nil, nil)
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	return NewAssignmentGateway(svc, cacheSvc, nil)
}

func TestAssignmentGatewayFetchCachesPage(t *testing.T) {
	repo := &assignmentRepoStub{
		items: []models.AssignmentDetail{*assignmentDetail(1, models.AssignmentStatusActive)},
		total: 1,
	}
	cacheRepo := newMemoryCacheRepo()
	gateway := newCachedAssignmentGateway(repo, cacheRepo)

	query := console.Query{Page: 1, PerPage: 20, Filters: map[string]string{"status": "active"}}
	page, err := gateway.Fetch(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "active", page.Items[0].Status)
	assert.Contains(t, cacheRepo.entries, cacheKeyFor(lifecycle.KindAssignment, query))

	// second fetch is served from the cache, not the repository
	repo.listErr = sql.ErrConnDone
	cached, err := gateway.Fetch(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, page.Total, cached.Total)
}

func TestAssignmentGatewayMutateRejectsFlagChange(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		1: assignmentDetail(1, models.AssignmentStatusAssigned),
	}}
	gateway := NewAssignmentGateway(NewAssignmentService(repo, nil, nil, nil, nil), nil, nil)

	_, err := gateway.Mutate(context.Background(), 1, console.Mutation{Flag: "is_active", Value: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusCalls)
}

func TestAssignmentGatewayMutateAppliesStatus(t *testing.T) {
	repo := &assignmentRepoStub{byID: map[int64]*models.AssignmentDetail{
		1: assignmentDetail(1, models.AssignmentStatusAssigned),
	}}
	gateway := NewAssignmentGateway(NewAssignmentService(repo, nil, nil, nil, nil), nil, nil)

	entity, err := gateway.Mutate(context.Background(), 1, console.Mutation{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, "active", entity.Status)
}
