package console

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/lifecycle"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type fakeGateway struct {
	mu         sync.Mutex
	items      []Entity
	fetchCount int
	lastQuery  Query
	fetchErr   error

	deleted   []int64
	deleteErr map[int64]error
	mutated   []Mutation
	mutateErr error
}

func (g *fakeGateway) Fetch(ctx context.Context, query Query) (*PageEnvelope, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCount++
	g.lastQuery = query
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	items := append([]Entity(nil), g.items...)
	return &PageEnvelope{Items: items, CurrentPage: query.Page, LastPage: 1, Total: len(items), PerPage: query.PerPage}, nil
}

func (g *fakeGateway) Mutate(ctx context.Context, id int64, change Mutation) (*Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mutateErr != nil {
		return nil, g.mutateErr
	}
	g.mutated = append(g.mutated, change)
	return &Entity{ID: id, Status: change.Status}, nil
}

func (g *fakeGateway) Delete(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.deleteErr[id]; err != nil {
		return err
	}
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *fakeGateway) fetches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetchCount
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(note Notification) {
	n.mu.Lock()
	n.notes = append(n.notes, note)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notes...)
}

func entityRow(id int64, status string) Entity {
	return Entity{ID: id, Status: status, Record: json.RawMessage(`{}`)}
}

func newTestController(t *testing.T, gw *fakeGateway, opts ...ControllerOption) (*Controller, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	opts = append(opts, WithNotifier(notifier))
	c := NewController(lifecycle.KindAssignment, gw, lifecycle.NewPolicy(), zap.NewNop(), opts...)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	return c, notifier
}

func TestStatusCommandConfirmedAndExecuted(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, notifier := newTestController(t, gw)
	baseline := gw.fetches()

	pending, note, err := c.RequestCommand(CommandRequest{Action: ActionStatus, ID: 1, To: "completed"})
	require.NoError(t, err)
	require.Nil(t, note)
	require.NotNil(t, pending)
	assert.NotEmpty(t, pending.Token)

	result, err := c.Confirm(context.Background(), pending.Token)
	require.NoError(t, err)
	assert.Equal(t, NotificationSuccess, result.Notification.Kind)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeFulfilled, result.Outcomes[0].Status)

	require.Len(t, gw.mutated, 1)
	assert.Equal(t, "completed", gw.mutated[0].Status)

	// one success notification, one refresh
	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, baseline+1, gw.fetches())
}

func TestIllegalTransitionRejectedBeforeConfirmation(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "assigned")}}
	c, notifier := newTestController(t, gw)

	pending, note, err := c.RequestCommand(CommandRequest{Action: ActionStatus, ID: 1, To: "completed"})
	require.Error(t, err)
	assert.Nil(t, pending)
	assert.Nil(t, note)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)

	// nothing reached the gateway, nothing was shown to the user
	assert.Empty(t, gw.mutated)
	assert.Empty(t, notifier.all())
}

func TestNoOpTransitionRejected(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, _ := newTestController(t, gw)

	_, _, err := c.RequestCommand(CommandRequest{Action: ActionStatus, ID: 1, To: "active"})
	require.Error(t, err)
}

func TestConfirmationTimeout(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, notifier := newTestController(t, gw, WithConfirmTimeout(20*time.Millisecond))

	pending, _, err := c.RequestCommand(CommandRequest{Action: ActionDelete, ID: 1})
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, NotificationExpired, notes[0].Kind)

	// the operation was never attempted
	assert.Empty(t, gw.deleted)
	assert.Empty(t, gw.mutated)

	// confirming after expiry reports the expiry, still no dispatch
	_, err = c.Confirm(context.Background(), pending.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfirmationExpired.Code, appErrors.FromError(err).Code)
	assert.Empty(t, gw.deleted)
	assert.Len(t, notifier.all(), 1)
}

func TestCancelIsSilent(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, notifier := newTestController(t, gw)

	pending, _, err := c.RequestCommand(CommandRequest{Action: ActionDelete, ID: 1})
	require.NoError(t, err)
	require.NoError(t, c.Cancel(pending.Token))

	assert.Empty(t, notifier.all())
	assert.Empty(t, gw.deleted)

	_, err = c.Confirm(context.Background(), pending.Token)
	require.Error(t, err)
}

func TestConfirmTwiceConflicts(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, _ := newTestController(t, gw)

	pending, _, err := c.RequestCommand(CommandRequest{Action: ActionDelete, ID: 1})
	require.NoError(t, err)

	_, err = c.Confirm(context.Background(), pending.Token)
	require.NoError(t, err)
	_, err = c.Confirm(context.Background(), pending.Token)
	require.Error(t, err)
	assert.Len(t, gw.deleted, 1)
}

func TestMutationFailureEmitsFailureWithoutRefresh(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}, mutateErr: errors.New("server rejected the change")}
	c, notifier := newTestController(t, gw)
	baseline := gw.fetches()

	pending, _, err := c.RequestCommand(CommandRequest{Action: ActionStatus, ID: 1, To: "cancelled"})
	require.NoError(t, err)

	result, err := c.Confirm(context.Background(), pending.Token)
	require.NoError(t, err)
	assert.Equal(t, NotificationFailure, result.Notification.Kind)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Rejected())

	// failed commands do not trigger the synchronizer
	assert.Equal(t, baseline, gw.fetches())
	require.Len(t, notifier.all(), 1)
	assert.Equal(t, NotificationFailure, notifier.all()[0].Kind)
}

func TestBulkDeleteEmptySelectionPrecondition(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, notifier := newTestController(t, gw)

	pending, note, err := c.RequestCommand(CommandRequest{Action: ActionBulkDelete})
	require.NoError(t, err)
	assert.Nil(t, pending)
	require.NotNil(t, note)
	assert.Equal(t, NotificationPrecondition, note.Kind)

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, NotificationPrecondition, notes[0].Kind)
	assert.Empty(t, gw.deleted)
}

func TestBulkDeletePartialFailure(t *testing.T) {
	gw := &fakeGateway{
		items:     []Entity{entityRow(3, "active"), entityRow(7, "assigned")},
		deleteErr: map[int64]error{7: errors.New("connection reset")},
	}
	c, notifier := newTestController(t, gw)

	require.NoError(t, c.SelectOne(3, true))
	require.NoError(t, c.SelectOne(7, true))
	baseline := gw.fetches()

	pending, note, err := c.RequestCommand(CommandRequest{Action: ActionBulkDelete})
	require.NoError(t, err)
	require.Nil(t, note)

	result, err := c.Confirm(context.Background(), pending.Token)
	require.NoError(t, err)

	// item 3 went through even though 7 failed
	assert.Equal(t, []int64{3}, gw.deleted)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, OutcomeFulfilled, result.Outcomes[0].Status)
	assert.Equal(t, OutcomeRejected, result.Outcomes[1].Status)

	// single aggregate notification naming the failed id
	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, NotificationFailure, notes[0].Kind)
	assert.Contains(t, notes[0].Message, "7")

	// selection cleared regardless of failures, exactly one refresh after the loop
	assert.Empty(t, c.SelectedIDs())
	assert.Equal(t, baseline+1, gw.fetches())
}

func TestBulkDeleteAllSucceed(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active"), entityRow(2, "active")}}
	c, notifier := newTestController(t, gw)

	c.SelectAll(true)
	require.True(t, c.AllSelected())

	pending, _, err := c.RequestCommand(CommandRequest{Action: ActionBulkDelete})
	require.NoError(t, err)
	result, err := c.Confirm(context.Background(), pending.Token)
	require.NoError(t, err)

	assert.Equal(t, NotificationSuccess, result.Notification.Kind)
	assert.Equal(t, []int64{1, 2}, gw.deleted)
	assert.Empty(t, c.SelectedIDs())
	require.Len(t, notifier.all(), 1)
}

func TestRefreshUsesFiltersActiveAtRefreshTime(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, _ := newTestController(t, gw)

	pending, _, err := c.RequestCommand(CommandRequest{Action: ActionDelete, ID: 1})
	require.NoError(t, err)

	// the operator edits a filter while the confirmation is pending
	_, err = c.SetFilter(context.Background(), "status", "completed")
	require.NoError(t, err)

	_, err = c.Confirm(context.Background(), pending.Token)
	require.NoError(t, err)

	// the post-mutation refresh carries the filter active now
	assert.Equal(t, "completed", gw.lastQuery.Filters["status"])
	assert.Equal(t, 1, gw.lastQuery.Page)
}

func TestRefreshResetsSelection(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active"), entityRow(2, "active")}}
	c, _ := newTestController(t, gw)

	require.NoError(t, c.SelectOne(1, true))
	_, err := c.SetFilter(context.Background(), "search", "gate")
	require.NoError(t, err)

	assert.Empty(t, c.SelectedIDs())
}

func TestSelectOneRejectsOffPageRows(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, _ := newTestController(t, gw)

	require.Error(t, c.SelectOne(99, true))
}

func TestAvailableActionsForVisibleRow(t *testing.T) {
	gw := &fakeGateway{items: []Entity{entityRow(1, "active")}}
	c, _ := newTestController(t, gw)

	actions, err := c.AvailableActions(1)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "completed", actions[0].To)
	assert.Equal(t, "Mark Completed", actions[0].Label)
	assert.Equal(t, "cancelled", actions[1].To)
	assert.Equal(t, "Cancel Assignment", actions[1].Label)

	_, err = c.AvailableActions(42)
	require.Error(t, err)
}
