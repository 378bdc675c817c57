package console

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/lifecycle"
)

func TestRegistryOpenGetClose(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	registry := NewRegistry(map[lifecycle.Kind]Gateway{lifecycle.KindAssignment: gw}, lifecycle.NewPolicy(), zap.NewNop(), RegistryConfig{})

	session, page, err := registry.Open(context.Background(), lifecycle.KindAssignment)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Len(t, page.Items, 1)

	got, err := registry.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	registry.Close(session.ID)
	_, err = registry.Get(session.ID)
	require.Error(t, err)
}

func TestRegistryUnknownKind(t *testing.T) {
	registry := NewRegistry(map[lifecycle.Kind]Gateway{}, lifecycle.NewPolicy(), zap.NewNop(), RegistryConfig{})
	_, _, err := registry.Open(context.Background(), lifecycle.KindGuard)
	require.Error(t, err)
}

func TestRegistrySweepsIdleSessions(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	registry := NewRegistry(map[lifecycle.Kind]Gateway{lifecycle.KindAssignment: gw}, lifecycle.NewPolicy(), zap.NewNop(), RegistryConfig{
		SessionTTL:    10 * time.Millisecond,
		SweepInterval: time.Hour,
	})

	session, _, err := registry.Open(context.Background(), lifecycle.KindAssignment)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	registry.sweep()

	_, err = registry.Get(session.ID)
	require.Error(t, err)
}

func TestControllersDoNotShareState(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active"), entityRow(2, "active")}}
	registry := NewRegistry(map[lifecycle.Kind]Gateway{lifecycle.KindAssignment: gw}, lifecycle.NewPolicy(), zap.NewNop(), RegistryConfig{})

	a, _, err := registry.Open(context.Background(), lifecycle.KindAssignment)
	require.NoError(t, err)
	b, _, err := registry.Open(context.Background(), lifecycle.KindAssignment)
	require.NoError(t, err)

	require.NoError(t, a.Controller.SelectOne(1, true))
	assert.Empty(t, b.Controller.SelectedIDs())
}
