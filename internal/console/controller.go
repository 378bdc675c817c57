package console

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/lifecycle"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

// DefaultConfirmTimeout is the confirmation window applied when none is
// configured. Every mutating command must be confirmed within it.
const DefaultConfirmTimeout = 5 * time.Second

// Controller owns the list state for one console view: the composed query,
// the loaded page, the page-scoped selection, and any commands awaiting
// confirmation. All state is guarded by a single mutex because, unlike the
// browser event loop this design came from, the server handles requests
// concurrently.
type Controller struct {
	mu sync.Mutex

	kind     lifecycle.Kind
	gateway  Gateway
	policy   *lifecycle.Policy
	composer *Composer

	page      *PageEnvelope
	selection *Selection
	pending   map[string]*pendingCommand

	confirmTimeout time.Duration
	notifier       Notifier
	logger         *zap.Logger
}

// ControllerOption customises controller construction.
type ControllerOption func(*Controller)

// WithConfirmTimeout overrides the confirmation window.
func WithConfirmTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.confirmTimeout = d
		}
	}
}

// WithNotifier installs a notification sink.
func WithNotifier(n Notifier) ControllerOption {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) ControllerOption {
	return func(c *Controller) {
		c.composer = NewComposer(size)
	}
}

// NewController builds a controller for one list view.
func NewController(kind lifecycle.Kind, gateway Gateway, policy *lifecycle.Policy, logger *zap.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = lifecycle.NewPolicy()
	}
	c := &Controller{
		kind:           kind,
		gateway:        gateway,
		policy:         policy,
		composer:       NewComposer(0),
		selection:      NewSelection(),
		pending:        make(map[string]*pendingCommand),
		confirmTimeout: DefaultConfirmTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(n Notification) {
			logger.Info("console notification",
				zap.String("kind", string(n.Kind)),
				zap.String("entity", string(kind)),
				zap.String("message", n.Message))
		})
	}
	return c
}

// Kind returns the entity kind this controller manages.
func (c *Controller) Kind() lifecycle.Kind { return c.kind }

// SetFilter stores a filter value and refetches with the new query.
// Pure page navigation keeps the page number it was given; any other
// filter resets to page 1 inside the composer.
func (c *Controller) SetFilter(ctx context.Context, name, value string) (*PageEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.SetFilter(name, value)
	return c.refreshLocked(ctx)
}

// SetSearchFields combines the free-text inputs into the single search
// filter and refetches.
func (c *Controller) SetSearchFields(ctx context.Context, fields ...string) (*PageEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.SetSearchFields(fields...)
	return c.refreshLocked(ctx)
}

// Refresh re-issues the current query.
func (c *Controller) Refresh(ctx context.Context) (*PageEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// refreshLocked fetches the page for the query active right now and resets
// the selection: a new page invalidates any prior row choices.
func (c *Controller) refreshLocked(ctx context.Context) (*PageEnvelope, error) {
	page, err := c.gateway.Fetch(ctx, c.composer.ToQuery())
	if err != nil {
		return nil, err
	}
	c.page = page
	c.selection.Reset()
	return page, nil
}

// Page returns the most recently loaded page, or nil before the first fetch.
func (c *Controller) Page() *PageEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Query returns the current query snapshot.
func (c *Controller) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composer.ToQuery()
}

// SelectOne toggles a single visible row.
func (c *Controller) SelectOne(id int64, checked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visibleLocked(id) {
		return appErrors.Clone(appErrors.ErrValidation, "row is not on the current page")
	}
	c.selection.SelectOne(id, checked)
	return nil
}

// SelectAll checks or clears every row on the current page.
func (c *Controller) SelectAll(checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SelectAll(checked, c.page.VisibleIDs())
}

// AllSelected derives the header checkbox state.
func (c *Controller) AllSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.AllSelected(c.page.VisibleIDs())
}

// SelectedIDs returns the current selection in ascending order.
func (c *Controller) SelectedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IDs()
}

// AvailableActions lists the legal lifecycle actions for a visible row.
func (c *Controller) AvailableActions(id int64) ([]lifecycle.Action, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entity := c.entityLocked(id)
	if entity == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "row is not on the current page")
	}
	return c.policy.AvailableActions(c.kind, entity.Status), nil
}

func (c *Controller) visibleLocked(id int64) bool {
	return c.entityLocked(id) != nil
}

func (c *Controller) entityLocked(id int64) *Entity {
	if c.page == nil {
		return nil
	}
	for i := range c.page.Items {
		if c.page.Items[i].ID == id {
			return &c.page.Items[i]
		}
	}
	return nil
}
