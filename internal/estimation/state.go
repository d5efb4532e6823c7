// Package estimation holds the request-lifecycle state for each input method,
// the coordinator that picks which method's state is on screen, and the
// presentation helpers shared by the web and terminal front-ends.
package estimation

import "github.com/vbonduro/dishcarbon/internal/domain"

// Phase is the coarse lifecycle position of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is the lifecycle of one input method. Result and Error are never both
// set, and both are clear while IsLoading. An empty Error means no error.
//
// Seq numbers submissions; only the response to the latest submission is
// applied. It survives Reset so that responses still in flight are dropped.
type State struct {
	Result     *domain.EstimationResult
	Error      string
	IsLoading  bool
	HasStarted bool
	Seq        uint64
}

func (s State) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.Result != nil:
		return PhaseSucceeded
	case s.Error != "":
		return PhaseFailed
	default:
		return PhaseIdle
	}
}

// Completed reports whether the state holds a result or an error.
func (s State) Completed() bool {
	p := s.Phase()
	return p == PhaseSucceeded || p == PhaseFailed
}

// IsIdleTuple reports whether the observable fields are the freshly mounted
// {nil, "", false, false} shape.
func (s State) IsIdleTuple() bool {
	return s.Result == nil && s.Error == "" && !s.IsLoading && !s.HasStarted
}

type EventKind int

const (
	EventSubmit EventKind = iota
	EventResponseOK
	EventResponseErr
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventSubmit:
		return "submit"
	case EventResponseOK:
		return "response_ok"
	case EventResponseErr:
		return "response_err"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event drives Reduce. Seq is only read for responses and must carry the
// sequence number the matching Submit produced.
type Event struct {
	Kind    EventKind
	Seq     uint64
	Result  *domain.EstimationResult
	Message string
}

func Submit() Event { return Event{Kind: EventSubmit} }

func ResponseOK(seq uint64, result *domain.EstimationResult) Event {
	return Event{Kind: EventResponseOK, Seq: seq, Result: result}
}

func ResponseErr(seq uint64, message string) Event {
	return Event{Kind: EventResponseErr, Seq: seq, Message: message}
}

func Reset() Event { return Event{Kind: EventReset} }

// Fallback error texts used when a failure carries no message.
const (
	FallbackTextError  = "Failed to estimate carbon footprint"
	FallbackImageError = "Failed to estimate carbon footprint from image"
)

// FallbackError returns the fallback failure text for method.
func FallbackError(method domain.Method) string {
	if method == domain.MethodImage {
		return FallbackImageError
	}
	return FallbackTextError
}

// Reduce applies ev to s using the text-method fallback message.
func Reduce(s State, ev Event) State {
	return ReduceFor(domain.MethodText, s, ev)
}

// ReduceFor is Reduce with the fallback error text of method.
func ReduceFor(method domain.Method, s State, ev Event) State {
	switch ev.Kind {
	case EventSubmit:
		return State{
			IsLoading:  true,
			HasStarted: true,
			Seq:        s.Seq + 1,
		}
	case EventResponseOK:
		if !accepts(s, ev) {
			return s
		}
		if ev.Result == nil {
			return State{Error: FallbackError(method), HasStarted: true, Seq: s.Seq}
		}
		return State{Result: ev.Result, HasStarted: true, Seq: s.Seq}
	case EventResponseErr:
		if !accepts(s, ev) {
			return s
		}
		msg := ev.Message
		if msg == "" {
			msg = FallbackError(method)
		}
		return State{Error: msg, HasStarted: true, Seq: s.Seq}
	case EventReset:
		return State{Seq: s.Seq}
	default:
		return s
	}
}

// accepts drops responses that belong to a superseded or reset submission.
func accepts(s State, ev Event) bool {
	return s.IsLoading && ev.Seq == s.Seq
}
