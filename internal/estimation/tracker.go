package estimation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

// RunFunc performs one backend call for a submission.
type RunFunc func(ctx context.Context) (*domain.EstimationResult, error)

// Observer is called with every new state, outside the tracker's lock.
type Observer func(method domain.Method, s State)

// Tracker owns the State of one input method. Submissions run in their own
// goroutine; there is no cancellation, a newer submission or a reset simply
// makes the older response stale.
type Tracker struct {
	method   domain.Method
	mu       sync.Mutex
	state    State
	observer Observer
	logger   *slog.Logger
	inflight sync.WaitGroup
}

func NewTracker(method domain.Method, observer Observer, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{method: method, observer: observer, logger: logger}
}

func (t *Tracker) Method() domain.Method {
	return t.method
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Submit moves the tracker to loading before returning and issues run in the
// background. It returns the sequence number of the submission.
func (t *Tracker) Submit(ctx context.Context, run RunFunc) uint64 {
	s, _ := t.dispatchIf(Submit(), nil)
	t.start(ctx, s.Seq, run)
	return s.Seq
}

// TrySubmit is Submit for callers that must not supersede a running call:
// while a submission is loading it changes nothing and reports false.
func (t *Tracker) TrySubmit(ctx context.Context, run RunFunc) (uint64, bool) {
	s, ok := t.dispatchIf(Submit(), func(s State) bool { return !s.IsLoading })
	if !ok {
		return s.Seq, false
	}
	t.start(ctx, s.Seq, run)
	return s.Seq, true
}

func (t *Tracker) start(ctx context.Context, seq uint64, run RunFunc) {
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()

		result, err := run(ctx)
		if err != nil {
			t.logger.Warn("estimation failed", "method", t.method, "seq", seq, "error", err)
			t.dispatch(ResponseErr(seq, err.Error()))
			return
		}
		t.logger.Info("estimation complete", "method", t.method, "seq", seq, "dish", result.Dish)
		after := t.dispatch(ResponseOK(seq, result))
		if after.Seq != seq || after.Result != result {
			t.logger.Debug("stale estimation response dropped", "method", t.method, "seq", seq, "latest", after.Seq)
		}
	}()
}

func (t *Tracker) Reset() {
	t.dispatch(Reset())
}

// Wait blocks until every submission issued so far has resolved.
func (t *Tracker) Wait() {
	t.inflight.Wait()
}

func (t *Tracker) dispatch(ev Event) State {
	s, _ := t.dispatchIf(ev, nil)
	return s
}

// dispatchIf applies ev when allow accepts the current state (or allow is
// nil) and reports whether it did.
func (t *Tracker) dispatchIf(ev Event, allow func(State) bool) (State, bool) {
	t.mu.Lock()
	before := t.state
	if allow != nil && !allow(before) {
		t.mu.Unlock()
		return before, false
	}
	t.state = ReduceFor(t.method, t.state, ev)
	after := t.state
	t.mu.Unlock()

	if t.observer != nil && after != before {
		t.observer(t.method, after)
	}
	return after, true
}
