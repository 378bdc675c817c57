package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

// RequestCommand gates a mutating intent behind a time-boxed confirmation.
// Illegal transitions and failed preconditions are rejected here, before
// any confirmation or gateway call. A returned notification (precondition
// kind) means the command short-circuited and nothing is pending.
func (c *Controller) RequestCommand(req CommandRequest) (*Pending, *Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []int64
	switch req.Action {
	case ActionBulkDelete:
		if c.selection.Size() == 0 {
			n := Notification{Kind: NotificationPrecondition, Message: "no rows selected"}
			c.notifier.Notify(n)
			return nil, &n, nil
		}
		ids = c.selection.IDs()
	case ActionDelete, ActionVisibility:
		if !c.visibleLocked(req.ID) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "row is not on the current page")
		}
		ids = []int64{req.ID}
	case ActionStatus:
		entity := c.entityLocked(req.ID)
		if entity == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "row is not on the current page")
		}
		if !c.policy.IsLegal(c.kind, entity.Status, req.To) {
			return nil, nil, appErrors.Clone(appErrors.ErrIllegalTransition,
				fmt.Sprintf("cannot move %s from %s to %s", c.kind, entity.Status, req.To))
		}
		ids = []int64{req.ID}
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown command action")
	}

	now := time.Now().UTC()
	p := &pendingCommand{
		token:     uuid.NewString(),
		request:   req,
		ids:       ids,
		startedAt: now,
		deadline:  now.Add(c.confirmTimeout),
		state:     pendingAwaiting,
	}
	p.timer = time.AfterFunc(c.confirmTimeout, func() { c.expire(p.token) })
	c.pending[p.token] = p

	return &Pending{Token: p.token, StartedAt: p.startedAt, Deadline: p.deadline}, nil, nil
}

// expire resolves a pending command as timed out. Exactly one of
// confirm/cancel/expire wins: whichever observes the awaiting state first.
func (c *Controller) expire(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[token]
	if !ok || p.state != pendingAwaiting {
		return
	}
	p.state = pendingExpired
	c.notifier.Notify(Notification{
		Kind:    NotificationExpired,
		Message: "confirmation window expired, no changes were made",
	})
	c.logger.Info("confirmation expired",
		zap.String("entity", string(c.kind)),
		zap.String("token", token),
		zap.String("action", string(p.request.Action)))
}

// Cancel resolves a pending command as explicitly cancelled. Cancellation
// is silent: no notification is emitted.
func (c *Controller) Cancel(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[token]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "no such pending confirmation")
	}
	if p.state != pendingAwaiting {
		return appErrors.Clone(appErrors.ErrConflict, "confirmation already resolved")
	}
	p.timer.Stop()
	p.state = pendingCancelled
	delete(c.pending, token)
	return nil
}

// Confirm executes a pending command. Once executing, the command runs to
// completion or failure; there is no abort-in-flight. All gateway errors
// are converted to a failure notification here and never propagate.
func (c *Controller) Confirm(ctx context.Context, token string) (*CommandResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no such pending confirmation")
	}
	switch p.state {
	case pendingExpired:
		delete(c.pending, token)
		return nil, appErrors.ErrConfirmationExpired
	case pendingAwaiting:
		// fall through to execution
	default:
		return nil, appErrors.Clone(appErrors.ErrConflict, "confirmation already resolved")
	}
	p.timer.Stop()
	p.state = pendingExecuting
	delete(c.pending, token)

	var result *CommandResult
	if p.request.Action == ActionBulkDelete {
		result = c.executeBulkLocked(ctx, p)
	} else {
		result = c.executeSingleLocked(ctx, p)
	}
	result.Action = p.request.Action
	p.state = pendingDone
	c.notifier.Notify(result.Notification)
	return result, nil
}

// executeSingleLocked dispatches one mutation and, on success, refreshes the
// page using the query active now (not the one active when the command was
// requested).
func (c *Controller) executeSingleLocked(ctx context.Context, p *pendingCommand) *CommandResult {
	id := p.ids[0]
	var err error
	switch p.request.Action {
	case ActionDelete:
		err = c.gateway.Delete(ctx, id)
	case ActionStatus:
		_, err = c.gateway.Mutate(ctx, id, Mutation{Status: p.request.To})
	case ActionVisibility:
		_, err = c.gateway.Mutate(ctx, id, Mutation{Flag: p.request.Flag, Value: p.request.Value})
	}

	outcome := outcomeFor(id, err)
	result := &CommandResult{Outcomes: []Outcome{outcome}}
	if outcome.Rejected() {
		result.Notification = Notification{Kind: NotificationFailure, Message: outcome.Error}
		return result
	}
	result.Notification = Notification{Kind: NotificationSuccess, Message: successMessage(p.request)}
	result.Page = c.refreshAfterMutation(ctx)
	return result
}

// executeBulkLocked deletes each selected row sequentially, accumulating a
// per-item outcome. A failed item never aborts the remaining ones. The
// selection is cleared and the page refreshed exactly once after the whole
// loop, regardless of individual failures.
func (c *Controller) executeBulkLocked(ctx context.Context, p *pendingCommand) *CommandResult {
	outcomes := make([]Outcome, 0, len(p.ids))
	var failed []string
	for _, id := range p.ids {
		outcome := outcomeFor(id, c.gateway.Delete(ctx, id))
		if outcome.Rejected() {
			failed = append(failed, fmt.Sprintf("%d", id))
			c.logger.Warn("bulk delete item failed",
				zap.String("entity", string(c.kind)),
				zap.Int64("id", id),
				zap.String("error", outcome.Error))
		}
		outcomes = append(outcomes, outcome)
	}

	c.selection.Reset()
	result := &CommandResult{Outcomes: outcomes}
	result.Page = c.refreshAfterMutation(ctx)

	if len(failed) == 0 {
		result.Notification = Notification{
			Kind:    NotificationSuccess,
			Message: fmt.Sprintf("deleted %d rows", len(p.ids)),
		}
	} else {
		result.Notification = Notification{
			Kind: NotificationFailure,
			Message: fmt.Sprintf("deleted %d of %d rows, failed ids: %s",
				len(p.ids)-len(failed), len(p.ids), strings.Join(failed, ", ")),
		}
	}
	return result
}

// refreshAfterMutation re-issues the current query so the table reflects
// the mutation. A refresh failure leaves the previous page in place; the
// mutation itself already succeeded. Deleting the last row of the last
// page can legitimately yield an empty page; the view decides whether to
// step back.
func (c *Controller) refreshAfterMutation(ctx context.Context) *PageEnvelope {
	page, err := c.refreshLocked(ctx)
	if err != nil {
		c.logger.Warn("post-mutation refresh failed",
			zap.String("entity", string(c.kind)),
			zap.Error(err))
		return nil
	}
	return page
}

func outcomeFor(id int64, err error) Outcome {
	if err != nil {
		return Outcome{ID: id, Status: OutcomeRejected, Error: err.Error()}
	}
	return Outcome{ID: id, Status: OutcomeFulfilled}
}

func successMessage(req CommandRequest) string {
	switch req.Action {
	case ActionDelete:
		return "row deleted"
	case ActionStatus:
		return fmt.Sprintf("status changed to %s", req.To)
	case ActionVisibility:
		if req.Value {
			return fmt.Sprintf("%s enabled", req.Flag)
		}
		return fmt.Sprintf("%s disabled", req.Flag)
	}
	return "done"
}
