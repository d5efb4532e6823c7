// Package session keeps the per-browser estimation state: one tracker per
// input method and the marker of which method was used last.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

// CookieName carries the session ID between page loads.
const CookieName = "dishcarbon_session"

type Session struct {
	ID    string
	Text  *estimation.Tracker
	Image *estimation.Tracker

	mu       sync.Mutex
	lastUsed domain.Method
	lastSeen time.Time
}

func newSession(id string, observer estimation.Observer, logger *slog.Logger, now time.Time) *Session {
	sessLogger := logger.With("session_id", id)
	return &Session{
		ID:       id,
		Text:     estimation.NewTracker(domain.MethodText, observer, sessLogger),
		Image:    estimation.NewTracker(domain.MethodImage, observer, sessLogger),
		lastSeen: now,
	}
}

// Tracker returns the tracker for m, or nil for an unknown method.
func (s *Session) Tracker(m domain.Method) *estimation.Tracker {
	switch m {
	case domain.MethodText:
		return s.Text
	case domain.MethodImage:
		return s.Image
	default:
		return nil
	}
}

func (s *Session) MarkUsed(m domain.Method) {
	s.mu.Lock()
	s.lastUsed = m
	s.mu.Unlock()
}

func (s *Session) LastUsed() domain.Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Submit marks m as last used and then starts the call on its tracker.
func (s *Session) Submit(ctx context.Context, m domain.Method, run estimation.RunFunc) uint64 {
	s.MarkUsed(m)
	return s.Tracker(m).Submit(ctx, run)
}

// TrySubmit is Submit that refuses while m already has a call loading, the
// same guard as a disabled submit button.
func (s *Session) TrySubmit(ctx context.Context, m domain.Method, run estimation.RunFunc) (uint64, bool) {
	tr := s.Tracker(m)
	if tr.State().IsLoading {
		return tr.State().Seq, false
	}
	s.MarkUsed(m)
	return tr.TrySubmit(ctx, run)
}

// Display is the coordinated view of both trackers.
func (s *Session) Display() estimation.Display {
	return estimation.Coordinate(s.Text.State(), s.Image.State(), s.LastUsed())
}

func (s *Session) ShowSamples() bool {
	return estimation.ShowSamples(s.Text.State(), s.Image.State())
}

// CombinedReset resets the tracker of the last used method, or both when
// nothing has been submitted yet. The marker itself is kept.
func (s *Session) CombinedReset() {
	for _, m := range estimation.ResetTargets(s.LastUsed()) {
		s.Tracker(m).Reset()
	}
}

// Busy reports whether either method has a call in flight.
func (s *Session) Busy() bool {
	return s.Text.State().IsLoading || s.Image.State().IsLoading
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
