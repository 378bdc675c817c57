package console

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/lifecycle"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

// Session wraps one controller instance with bookkeeping for expiry.
type Session struct {
	ID         string
	Controller *Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// RegistryConfig tunes session lifetime and sweep cadence. Notifier, when
// set, is installed on every controller the registry creates.
type RegistryConfig struct {
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	ConfirmTimeout time.Duration
	PageSize       int
	Notifier       Notifier
}

// Registry owns all live console sessions. One controller is created per
// list view; no state is shared between views.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gateways map[lifecycle.Kind]Gateway
	policy   *lifecycle.Policy
	logger   *zap.Logger
	cfg      RegistryConfig

	stop chan struct{}
	once sync.Once
}

// NewRegistry builds a registry over the registered per-kind gateways.
func NewRegistry(gateways map[lifecycle.Kind]Gateway, policy *lifecycle.Policy, logger *zap.Logger, cfg RegistryConfig) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Registry{
		sessions: make(map[string]*Session),
		gateways: gateways,
		policy:   policy,
		logger:   logger,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}
}

// Open creates a session for a kind and performs the initial fetch.
func (r *Registry) Open(ctx context.Context, kind lifecycle.Kind) (*Session, *PageEnvelope, error) {
	gateway, ok := r.gateways[kind]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown entity kind")
	}

	opts := []ControllerOption{}
	if r.cfg.ConfirmTimeout > 0 {
		opts = append(opts, WithConfirmTimeout(r.cfg.ConfirmTimeout))
	}
	if r.cfg.PageSize > 0 {
		opts = append(opts, WithPageSize(r.cfg.PageSize))
	}
	if r.cfg.Notifier != nil {
		opts = append(opts, WithNotifier(r.cfg.Notifier))
	}
	controller := NewController(kind, gateway, r.policy, r.logger, opts...)

	page, err := controller.Refresh(ctx)
	if err != nil {
		return nil, nil, err
	}

	session := &Session{ID: uuid.NewString(), Controller: controller, lastSeen: time.Now()}
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session, page, nil
}

// Get returns a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "console session not found")
	}
	session.touch()
	return session, nil
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close discards a session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// StartSweeper evicts idle sessions until Stop is called.
func (r *Registry) StartSweeper() {
	go func() {
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

// Stop terminates the sweeper.
func (r *Registry) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.cfg.SessionTTL)
	r.mu.Lock()
	var evicted int
	for id, session := range r.sessions {
		if session.idleSince(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	r.mu.Unlock()
	if evicted > 0 {
		r.logger.Info("evicted idle console sessions", zap.Int("count", evicted))
	}
}
