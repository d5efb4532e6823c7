package estimation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

// step is a generated action against a single method's state. Responses pick
// one of the submissions issued so far, so stale responses get exercised.
type step struct {
	Kind   int
	Target int
	OK     bool
}

func genSteps() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 2),
		gen.IntRange(0, 8),
		gen.Bool(),
	).Map(func(v []interface{}) step {
		return step{Kind: v[0].(int), Target: v[1].(int), OK: v[2].(bool)}
	}))
}

// replay applies steps and calls check after every transition.
func replay(steps []step, check func(State) bool) bool {
	var s State
	var issued []uint64
	for _, st := range steps {
		switch st.Kind {
		case 0:
			s = Reduce(s, Submit())
			issued = append(issued, s.Seq)
		case 1:
			if len(issued) == 0 {
				continue
			}
			seq := issued[st.Target%len(issued)]
			if st.OK {
				s = Reduce(s, ResponseOK(seq, pizza))
			} else {
				s = Reduce(s, ResponseErr(seq, "backend said no"))
			}
		default:
			s = Reduce(s, Reset())
		}
		if !check(s) {
			return false
		}
	}
	return true
}

func TestStateInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 40

	properties := gopter.NewProperties(parameters)

	properties.Property("result and error are never both present", prop.ForAll(
		func(steps []step) bool {
			return replay(steps, func(s State) bool {
				return s.Result == nil || s.Error == ""
			})
		},
		genSteps(),
	))

	properties.Property("loading implies result and error absent", prop.ForAll(
		func(steps []step) bool {
			return replay(steps, func(s State) bool {
				return !s.IsLoading || (s.Result == nil && s.Error == "")
			})
		},
		genSteps(),
	))

	properties.Property("submit always yields loading and started", prop.ForAll(
		func(steps []step) bool {
			var s State
			for _, st := range steps {
				if st.Kind == 2 {
					s = Reduce(s, Reset())
				}
				s = Reduce(s, Submit())
				if !s.IsLoading || !s.HasStarted {
					return false
				}
			}
			return true
		},
		genSteps(),
	))

	properties.Property("reset always yields the idle tuple and is idempotent", prop.ForAll(
		func(steps []step) bool {
			return replay(steps, func(s State) bool {
				once := Reduce(s, Reset())
				return once.IsIdleTuple() && Reduce(once, Reset()) == once
			})
		},
		genSteps(),
	))

	properties.Property("started only reverts through reset", prop.ForAll(
		func(steps []step) bool {
			var s State
			var issued []uint64
			for _, st := range steps {
				before := s
				switch st.Kind {
				case 0:
					s = Reduce(s, Submit())
					issued = append(issued, s.Seq)
				case 1:
					if len(issued) > 0 {
						s = Reduce(s, ResponseOK(issued[st.Target%len(issued)], pizza))
					}
				default:
					s = Reduce(s, Reset())
					continue
				}
				if before.HasStarted && !s.HasStarted {
					return false
				}
			}
			return true
		},
		genSteps(),
	))

	properties.TestingRun(t)
}

func genState() gopter.Gen {
	return gen.IntRange(0, 3).Map(func(p int) State {
		switch Phase(p) {
		case PhaseLoading:
			return State{IsLoading: true, HasStarted: true, Seq: 1}
		case PhaseSucceeded:
			return State{Result: pizza, HasStarted: true, Seq: 1}
		case PhaseFailed:
			return State{Error: "boom", HasStarted: true, Seq: 1}
		default:
			return State{}
		}
	})
}

func genMethod() gopter.Gen {
	return gen.OneConstOf(domain.Method(""), domain.MethodText, domain.MethodImage)
}

func TestCoordinatorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("in-flight image call always owns the slot", prop.ForAll(
		func(text State, last domain.Method) bool {
			image := State{IsLoading: true, HasStarted: true, Seq: 1}
			d := Coordinate(text, image, last)
			return d.Source == domain.MethodImage && d.IsLoading
		},
		genState(), genMethod(),
	))

	properties.Property("nothing shown only when both are idle", prop.ForAll(
		func(text, image State, last domain.Method) bool {
			d := Coordinate(text, image, last)
			bothIdle := text.Phase() == PhaseIdle && image.Phase() == PhaseIdle
			return d.Empty() == bothIdle
		},
		genState(), genState(), genMethod(),
	))

	properties.Property("display mirrors the chosen source", prop.ForAll(
		func(text, image State, last domain.Method) bool {
			d := Coordinate(text, image, last)
			var src State
			switch d.Source {
			case domain.MethodText:
				src = text
			case domain.MethodImage:
				src = image
			default:
				return d == Display{}
			}
			return d.Result == src.Result && d.Error == src.Error && d.IsLoading == src.IsLoading
		},
		genState(), genState(), genMethod(),
	))

	properties.TestingRun(t)
}
