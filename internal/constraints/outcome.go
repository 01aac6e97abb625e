package constraints

import (
	"math"

	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/types"
)

// OutcomeState is the lifecycle state of a goal.
type OutcomeState int

const (
	// OutcomePending marks a goal not yet decided.
	OutcomePending OutcomeState = iota
	// OutcomeSucceeded marks a goal decided in the affirmative.
	OutcomeSucceeded
	// OutcomeFailed marks a goal decided in the negative.
	OutcomeFailed
	// OutcomeProduct marks a goal that succeeds iff all subordinates do.
	OutcomeProduct
)

func (s OutcomeState) String() string {
	switch s {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "success"
	case OutcomeFailed:
		return "failure"
	case OutcomeProduct:
		return "product"
	default:
		return "unknown"
	}
}

// DiagnoseFunc renders the failure of a root goal. It receives the final
// substitutions and the full outcome table so it may consult subordinate
// outcomes; it must be pure and idempotent because it can be re-invoked
// when a superior solution replaces an inferior one.
type DiagnoseFunc func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable)

// Outcome is the per-goal result slot. Setting it is a one-time
// assignment.
type Outcome struct {
	State        OutcomeState
	Subordinates []GoalID
	Diagnose     DiagnoseFunc
}

// OutcomeTable is the outcomes list, parallel to the goal list.
type OutcomeTable []Outcome

// Succeeded reports whether goal id is (recursively) successful.
func (t OutcomeTable) Succeeded(id GoalID) bool {
	switch t[id].State {
	case OutcomeSucceeded:
		return true
	case OutcomeProduct:
		for _, sub := range t[id].Subordinates {
			if !t.Succeeded(sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Failed reports whether goal id is (recursively) decided negative.
func (t OutcomeTable) Failed(id GoalID) bool {
	switch t[id].State {
	case OutcomeFailed:
		return true
	case OutcomeProduct:
		for _, sub := range t[id].Subordinates {
			if t.Failed(sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Decided reports whether goal id has a final state on every path.
func (t OutcomeTable) Decided(id GoalID) bool {
	switch t[id].State {
	case OutcomePending:
		return false
	case OutcomeProduct:
		for _, sub := range t[id].Subordinates {
			if !t.Decided(sub) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Score ranks solutions: error count first, then penalties. Lower is
// better.
type Score struct {
	Errors    int
	Penalties int
}

// WorstScore compares greater than every achievable score.
var WorstScore = Score{Errors: math.MaxInt, Penalties: math.MaxInt}

// Less reports lexicographic order.
func (s Score) Less(o Score) bool {
	if s.Errors != o.Errors {
		return s.Errors < o.Errors
	}
	return s.Penalties < o.Penalties
}
