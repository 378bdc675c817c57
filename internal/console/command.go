package console

import "time"

// CommandAction enumerates the mutating intents a command can carry.
type CommandAction string

const (
	ActionStatus     CommandAction = "status"
	ActionVisibility CommandAction = "visibility"
	ActionDelete     CommandAction = "delete"
	ActionBulkDelete CommandAction = "bulk_delete"
)

// CommandRequest describes a requested mutation before confirmation.
type CommandRequest struct {
	Action CommandAction `json:"action" binding:"required"`
	ID     int64         `json:"id,omitempty"`
	To     string        `json:"to,omitempty"`
	Flag   string        `json:"flag,omitempty"`
	Value  bool          `json:"value,omitempty"`
}

// OutcomeStatus is the structural fulfilled/rejected tag on a dispatch
// result. Domain-level rejections and transport errors both count as
// rejected; success is never inferred from the absence of a panic.
type OutcomeStatus string

const (
	OutcomeFulfilled OutcomeStatus = "fulfilled"
	OutcomeRejected  OutcomeStatus = "rejected"
)

// Outcome records the result of one dispatched item.
type Outcome struct {
	ID     int64         `json:"id"`
	Status OutcomeStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// Rejected reports whether the outcome carries a failure.
func (o Outcome) Rejected() bool { return o.Status == OutcomeRejected }

// Pending is the ephemeral awaiting-confirmation state returned to the view.
type Pending struct {
	Token     string    `json:"token"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

// CommandResult is the terminal outcome of one confirmed command.
type CommandResult struct {
	Action       CommandAction `json:"action"`
	Notification Notification  `json:"notification"`
	Outcomes     []Outcome     `json:"outcomes,omitempty"`
	Page         *PageEnvelope `json:"page,omitempty"`
}

type pendingState int

const (
	pendingAwaiting pendingState = iota
	pendingExecuting
	pendingCancelled
	pendingExpired
	pendingDone
)

type pendingCommand struct {
	token     string
	request   CommandRequest
	ids       []int64
	startedAt time.Time
	deadline  time.Time
	timer     *time.Timer
	state     pendingState
}
