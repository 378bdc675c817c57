package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentTransitions(t *testing.T) {
	policy := NewPolicy()

	assert.True(t, policy.IsLegal(KindAssignment, "assigned", "active"))
	assert.True(t, policy.IsLegal(KindAssignment, "assigned", "cancelled"))
	assert.True(t, policy.IsLegal(KindAssignment, "active", "completed"))
	assert.True(t, policy.IsLegal(KindAssignment, "active", "cancelled"))

	// no skipping straight to completed
	assert.False(t, policy.IsLegal(KindAssignment, "assigned", "completed"))
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	policy := NewPolicy()
	for _, to := range policy.Statuses(KindAssignment) {
		assert.False(t, policy.IsLegal(KindAssignment, "completed", to), "completed -> %s", to)
		assert.False(t, policy.IsLegal(KindAssignment, "cancelled", to), "cancelled -> %s", to)
	}
	assert.Empty(t, policy.AvailableActions(KindAssignment, "completed"))
	assert.Empty(t, policy.AvailableActions(KindAssignment, "cancelled"))
}

func TestNoOpTransitionAlwaysIllegal(t *testing.T) {
	policy := NewPolicy()
	for _, kind := range []Kind{KindAssignment, KindAttendance, KindIncident, KindComplaint, KindExpense} {
		for _, status := range policy.Statuses(kind) {
			assert.False(t, policy.IsLegal(kind, status, status), "%s: %s -> %s", kind, status, status)
		}
	}
}

func TestAvailableActionsForActiveAssignment(t *testing.T) {
	policy := NewPolicy()
	actions := policy.AvailableActions(KindAssignment, "active")
	require.Equal(t, []Action{
		{To: "completed", Label: "Mark Completed"},
		{To: "cancelled", Label: "Cancel Assignment"},
	}, actions)
}

func TestPermissiveKindsReachEveryOtherStatus(t *testing.T) {
	policy := NewPolicy()

	assert.True(t, policy.IsLegal(KindIncident, "closed", "pending"))
	assert.True(t, policy.IsLegal(KindExpense, "rejected", "approved"))
	assert.True(t, policy.IsLegal(KindAttendance, "absent", "present"))

	actions := policy.AvailableActions(KindExpense, "pending")
	require.Len(t, actions, 2)
	assert.Equal(t, "approved", actions[0].To)
	assert.Equal(t, "rejected", actions[1].To)
}

func TestUnknownStatusIsIllegal(t *testing.T) {
	policy := NewPolicy()
	assert.False(t, policy.IsLegal(KindIncident, "bogus", "pending"))
	assert.False(t, policy.IsLegal(KindIncident, "pending", "bogus"))
	assert.False(t, policy.IsLegal(KindClient, "active", "inactive"))
}

func TestWithTablePlugsStricterRules(t *testing.T) {
	policy := NewPolicy().WithTable(KindExpense, Table{
		"pending":  {"approved", "rejected"},
		"approved": {},
		"rejected": {},
	})

	assert.False(t, policy.IsLegal(KindExpense, "approved", "rejected"))
	assert.True(t, policy.IsLegal(KindExpense, "pending", "approved"))

	// the default policy is untouched
	assert.True(t, NewPolicy().IsLegal(KindExpense, "approved", "rejected"))
}

func TestDefaultLabels(t *testing.T) {
	policy := NewPolicy()
	actions := policy.AvailableActions(KindIncident, "pending")
	require.NotEmpty(t, actions)
	assert.Equal(t, "Mark Acknowledged", actions[0].Label)

	inReview := policy.AvailableActions(KindComplaint, "open")
	assert.Equal(t, "Mark In Review", inReview[0].Label)
}
