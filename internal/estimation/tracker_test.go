package estimation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

type recordingObserver struct {
	mu     sync.Mutex
	states []State
}

func (r *recordingObserver) observe(_ domain.Method, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recordingObserver) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestTrackerSubmitLoadsBeforeResolving(t *testing.T) {
	release := make(chan struct{})
	tr := NewTracker(domain.MethodText, nil, nil)

	tr.Submit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		<-release
		return pizza, nil
	})

	s := tr.State()
	assert.True(t, s.IsLoading)
	assert.True(t, s.HasStarted)
	assert.Nil(t, s.Result)

	close(release)
	tr.Wait()

	s = tr.State()
	assert.Equal(t, PhaseSucceeded, s.Phase())
	assert.Same(t, pizza, s.Result)
}

func TestTrackerFailureUsesErrorMessage(t *testing.T) {
	tr := NewTracker(domain.MethodImage, nil, nil)
	tr.Submit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		return nil, errors.New("This image does not contain food.")
	})
	tr.Wait()

	assert.Equal(t, "This image does not contain food.", tr.State().Error)
}

func TestTrackerNewerSubmitWins(t *testing.T) {
	slow := make(chan struct{})
	fast := make(chan struct{})
	tr := NewTracker(domain.MethodText, nil, nil)

	tr.Submit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		<-slow
		return &domain.EstimationResult{Dish: "stale"}, nil
	})
	tr.Submit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		<-fast
		return pizza, nil
	})

	close(fast)
	close(slow)
	tr.Wait()

	require.NotNil(t, tr.State().Result)
	assert.Equal(t, "Margherita Pizza", tr.State().Result.Dish)
}

func TestTrackerResetDiscardsInflight(t *testing.T) {
	release := make(chan struct{})
	obs := &recordingObserver{}
	tr := NewTracker(domain.MethodText, obs.observe, nil)

	tr.Submit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		<-release
		return pizza, nil
	})
	tr.Reset()
	close(release)
	tr.Wait()

	assert.True(t, tr.State().IsIdleTuple())

	states := obs.all()
	require.Len(t, states, 2)
	assert.True(t, states[0].IsLoading)
	assert.True(t, states[1].IsIdleTuple())
}

func TestTrackerObserverSeesEveryTransition(t *testing.T) {
	obs := &recordingObserver{}
	tr := NewTracker(domain.MethodText, obs.observe, nil)

	tr.Submit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		return pizza, nil
	})
	tr.Wait()
	tr.Reset()
	tr.Reset()

	states := obs.all()
	require.Len(t, states, 3)
	assert.Equal(t, PhaseLoading, states[0].Phase())
	assert.Equal(t, PhaseSucceeded, states[1].Phase())
	assert.Equal(t, PhaseIdle, states[2].Phase())
}

func TestTrackerTrySubmitRefusesWhileLoading(t *testing.T) {
	release := make(chan struct{})
	obs := &recordingObserver{}
	tr := NewTracker(domain.MethodText, obs.observe, nil)

	calls := 0
	run := func(context.Context) (*domain.EstimationResult, error) {
		calls++
		<-release
		return pizza, nil
	}

	seq, ok := tr.TrySubmit(context.Background(), run)
	require.True(t, ok)
	again, ok := tr.TrySubmit(context.Background(), run)
	assert.False(t, ok)
	assert.Equal(t, seq, again)

	close(release)
	tr.Wait()
	assert.Equal(t, 1, calls)
	assert.Len(t, obs.all(), 2)

	next, ok := tr.TrySubmit(context.Background(), func(context.Context) (*domain.EstimationResult, error) {
		return pizza, nil
	})
	require.True(t, ok)
	assert.Equal(t, seq+1, next)
	tr.Wait()
}
