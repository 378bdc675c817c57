package console

// NotificationKind distinguishes the four user-visible outcomes a
// confirmation-gated command can produce.
type NotificationKind string

const (
	NotificationSuccess      NotificationKind = "success"
	NotificationFailure      NotificationKind = "failure"
	NotificationExpired      NotificationKind = "expired"
	NotificationPrecondition NotificationKind = "precondition_failed"
)

// Notification is the presentation-agnostic message handed to the view layer.
// Every command outcome yields exactly one of these.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// Notifier receives each emitted notification. The default implementation
// logs; handlers additionally return the notification in the response body.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }
