package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

// Notifier receives the coordinated display of a session whenever one of
// its trackers changes.
type Notifier interface {
	Notify(sessionID string, d estimation.Display)
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(ttl time.Duration, notifier Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the session with id, or nil when it does not exist.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	s.touch(m.now())
	return s
}

// GetOrCreate returns the session with id, creating a fresh one under a new
// ID when id is empty or unknown. The boolean reports whether it was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if s := m.Get(id); s != nil {
		return s, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	newID := uuid.NewString()
	s := newSession(newID, m.observerFor(newID), m.logger, m.now())
	m.sessions[newID] = s
	m.logger.Info("session created", "session_id", newID, "sessions", len(m.sessions))
	return s, true
}

func (m *Manager) observerFor(id string) estimation.Observer {
	return func(method domain.Method, st estimation.State) {
		m.logger.Debug("estimation state changed", "session_id", id, "method", method, "phase", st.Phase())
		if m.notifier == nil {
			return
		}
		s := m.lookup(id)
		if s == nil {
			return
		}
		m.notifier.Notify(id, s.Display())
	}
}

func (m *Manager) lookup(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Sweep drops sessions idle for longer than the TTL. Sessions with a call in
// flight are kept. It returns the number of sessions removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Busy() || now.Sub(s.idleSince()) <= m.ttl {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		m.logger.Info("idle sessions evicted", "removed", removed, "remaining", len(m.sessions))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.Sweep(t)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
