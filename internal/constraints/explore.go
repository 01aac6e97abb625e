package constraints

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/types"
)

// exploreChoice is one alternative of a disjunction or overload,
// normalized for the shared exploration protocol.
type exploreChoice struct {
	penalty     int
	constraints []Goal
	configure   func(fork *System)
}

// explore forks the solver per choice and returns the winning fork's
// solution: nil when no branch is competitive, the single winner, or a
// merged ambiguous solution.
func (s *System) explore(id GoalID, bound Score, checker Checker) *Solution {
	choices, ambiguity := s.explorationChoices(id)

	s.tracer.fork(id)
	s.tracer.push()

	best := bound
	var winners []*Solution
	for i, c := range choices {
		floor := s.currentScore()
		floor.Penalties += c.penalty
		if best.Less(floor) {
			s.tracer.skip(i)
			continue
		}
		s.tracer.pick(i)
		s.tracer.push()

		fork := s.clone()
		fork.penalties += c.penalty
		if c.configure != nil {
			c.configure(fork)
		}
		ids := fork.scheduleAll(c.constraints, id)
		fork.product(id, ids, nil)

		sol := fork.SolveNotWorseThan(best, checker)
		s.tracer.pop()
		if sol == nil {
			continue
		}
		winners, best = s.insertExploration(winners, best, sol, checker)
	}

	s.tracer.pop()
	s.tracer.breakExploration()

	switch len(winners) {
	case 0:
		return nil
	case 1:
		return winners[0]
	default:
		return mergeAmbiguous(winners, ambiguity)
	}
}

// explorationChoices normalizes a disjunction or overload goal.
func (s *System) explorationChoices(id GoalID) ([]exploreChoice, diagnostic.Diagnostic) {
	origin := s.goals[id].Origin
	switch d := s.goals[id].Data.(type) {
	case *DisjunctionGoal:
		out := make([]exploreChoice, len(d.Choices))
		for i, c := range d.Choices {
			out[i] = exploreChoice{penalty: c.Penalty, constraints: c.Constraints}
		}
		return out, diagnostic.Error(origin.Site, "ambiguous expression")
	case *OverloadGoal:
		out := make([]exploreChoice, len(d.Candidates))
		for i, c := range d.Candidates {
			ref := c.Reference
			expr := d.Expr
			out[i] = exploreChoice{
				penalty:     c.Penalty,
				constraints: c.Constraints,
				configure: func(fork *System) {
					fork.bindingAssumptions[expr] = ref
				},
			}
		}
		return out, diagnostic.Error(origin.Site, "ambiguous use of overloaded name")
	default:
		panic("exploration over a non-exploratory goal")
	}
}

// insertExploration merges a fork's solution into the set of winners,
// preserving all maximal elements under the specificity ranking.
func (s *System) insertExploration(winners []*Solution, best Score, sol *Solution, checker Checker) ([]*Solution, Score) {
	sc := sol.Score()
	if best.Less(sc) {
		return winners, best
	}
	if sc.Less(best) {
		return []*Solution{sol}, sc
	}

	kept := winners[:0]
	dominated := false
	for _, w := range winners {
		switch compareSpecificity(sol, w, s.scope, checker) {
		case orderingAscending:
			// The new solution refines w; drop w.
		case orderingDescending:
			dominated = true
			kept = append(kept, w)
		case orderingEqual:
			// Equally specific distinct winners stay ambiguous; exact
			// duplicates collapse.
			if bindingsEqual(sol.bindings, w.bindings) {
				dominated = true
			}
			kept = append(kept, w)
		default:
			kept = append(kept, w)
		}
	}
	if !dominated {
		kept = append(kept, sol)
	}
	return kept, best
}

func bindingsEqual(a, b map[types.NodeID]DeclRef) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// mergeAmbiguous merges equally ranked winners into a single solution
// carrying an ambiguity diagnostic.
func mergeAmbiguous(winners []*Solution, ambiguity diagnostic.Diagnostic) *Solution {
	base := winners[0]
	merged := &Solution{
		substitutions: base.substitutions,
		bindings:      base.bindings,
		penalties:     base.penalties,
		stale:         base.stale,
	}
	for _, w := range winners {
		for _, d := range w.diagnostics {
			merged.addDiagnostic(d)
		}
	}
	merged.addDiagnostic(ambiguity)
	return merged
}

// ====== Specificity ranking ======

type ordering int

const (
	orderingEqual ordering = iota
	orderingAscending
	orderingDescending
	orderingIncomparable
)

// compareSpecificity ranks two solutions by the name-bindings they
// share. a is more specific than b iff every shared-name comparison
// ascends or is equal and at least one strictly ascends; any
// non-comparable pair yields incomparable.
func compareSpecificity(a, b *Solution, scope types.ScopeID, checker Checker) ordering {
	result := orderingEqual
	for _, expr := range sortedBindingKeys(a.bindings) {
		rb, shared := b.bindings[expr]
		if !shared {
			continue
		}
		ra := a.bindings[expr]
		if ra == rb {
			continue
		}
		o := compareCallables(checker.DeclType(ra.Decl), checker.DeclType(rb.Decl), scope, checker)
		if o == orderingIncomparable {
			return orderingIncomparable
		}
		if o == orderingEqual {
			continue
		}
		if result == orderingEqual {
			result = o
		} else if result != o {
			return orderingIncomparable
		}
	}
	return result
}

// compareCallables compares two declared callable types: same labels,
// same arity, then mutual strict-subtype tests on their parameter
// tuples. Antisymmetry violations rank as incomparable.
func compareCallables(ta, tb *types.Type, scope types.ScopeID, checker Checker) ordering {
	pa, la, oka := callableParameterTuple(ta)
	pb, lb, okb := callableParameterTuple(tb)
	if !oka || !okb || !labelsEqual(la, lb) {
		return orderingIncomparable
	}

	aBelow := strictSubtypeHolds(pa, pb, scope, checker)
	bBelow := strictSubtypeHolds(pb, pa, scope, checker)
	switch {
	case aBelow && bBelow:
		return orderingIncomparable
	case aBelow:
		return orderingAscending
	case bBelow:
		return orderingDescending
	case checker.AreEquivalent(pa, pb):
		return orderingEqual
	default:
		return orderingIncomparable
	}
}

// callableParameterTuple projects a callable's parameters into a bare
// tuple for the specificity subtype test.
func callableParameterTuple(t *types.Type) (*types.Type, []string, bool) {
	var inputs []types.CallableParam
	switch {
	case t.Lambda() != nil:
		inputs = t.Lambda().Inputs
	case t.Method() != nil:
		inputs = t.Method().Inputs
	default:
		return nil, nil, false
	}
	elements := make([]types.TupleElement, len(inputs))
	for i, p := range inputs {
		bare := p.Type
		if pp := p.Type.Parameter(); pp != nil {
			bare = pp.Bare
		}
		elements[i] = types.TupleElement{Label: p.Label, Type: bare}
	}
	return types.NewTuple(elements), types.Labels(inputs), true
}
