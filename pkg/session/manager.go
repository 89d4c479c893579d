package session

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/google/uuid"
)

// Handle is a live session together with its bookkeeping.
type Handle struct {
	ID        string
	Algorithm string
	Created   time.Time
	Session   ports.Session
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the live sessions of a process, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	mu       sync.Mutex            // Global lock for the maps
	sessions map[string]Handle     // Live sessions by id
	locks    map[string]*lockEntry // Map of active locks
	closed   bool

	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates an empty Session Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]Handle),
		locks:    make(map[string]*lockEntry),
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create configures a new session for alg and registers it under a fresh id.
// The session starts in the configuring state.
func (m *Manager) Create(alg ports.Algorithm, values params.Values, cfg ports.SessionConfig) (Handle, error) {
	id := m.newID()
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}
	cfg.Logger = cfg.Logger.With("session_id", id)

	sess, err := alg.NewSession(values, cfg)
	if err != nil {
		return Handle{}, err
	}
	h := Handle{ID: id, Algorithm: alg.Meta().Slug, Created: m.now(), Session: sess}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sess.Close()
		return Handle{}, domain.ErrClosed
	}
	if _, dup := m.sessions[id]; dup {
		m.mu.Unlock()
		sess.Close()
		return Handle{}, fmt.Errorf("session id %q already in use", id)
	}
	m.sessions[id] = h
	m.mu.Unlock()

	m.logger.Debug("Session created", "session_id", id, "algorithm", h.Algorithm)
	return h, nil
}

// Get returns the live session with the given id.
func (m *Manager) Get(sessionID string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[sessionID]
	if !ok {
		return Handle{}, fmt.Errorf("session %q: %w", sessionID, domain.ErrNotFound)
	}
	return h, nil
}

// Delete closes and forgets the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context, h Handle) error {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()

		h.Session.Close()
		m.logger.Debug("Session deleted", "session_id", sessionID)
		return nil
	})
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []Handle {
	m.mu.Lock()
	out := make([]Handle, 0, len(m.sessions))
	for _, h := range m.sessions {
		out = append(out, h)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b Handle) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// WithLock executes fn while holding the lock for the session, so multi-step
// operations (reconfigure then start) are not interleaved.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, Handle) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	return fn(ctx, h)
}

// Close tears down every session. Later calls to Create fail with domain.ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	live := m.sessions
	m.sessions = make(map[string]Handle)
	m.mu.Unlock()

	for id, h := range live {
		h.Session.Close()
		m.logger.Debug("Session closed", "session_id", id)
	}
}
