package constraints

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// solveSubtyping applies the subtyping rule table to a reified goal.
func (s *System) solveSubtyping(id GoalID, checker Checker) {
	d := s.goals[id].Data.(*SubtypingGoal)
	l, r := d.L, d.R
	origin := s.goals[id].Origin

	// Equivalence is established early; a strict goal fails on it.
	if checker.AreEquivalent(l, r) {
		if d.Strict {
			s.fail(id, subtypeDiagnose(origin, l, r, true))
			return
		}
		s.succeed(id)
		return
	}

	lu, ru := l.Union(), r.Union()
	switch {
	case lu != nil && ru != nil:
		// union <= union decomposes element-wise.
		subs := make([]Goal, len(lu.Members))
		for i, m := range lu.Members {
			subs[i] = Subtyping(m, r, false, origin)
		}
		s.product(id, s.scheduleAll(subs, id), subtypeDiagnose(origin, l, r, d.Strict))

	case ru != nil:
		s.solveSubtypingOfUnion(id, l, ru, d.Strict)

	case r.IsVariable() && !d.Strict:
		// Inference constraint: equal, or strictly below.
		choices := []Choice{
			{Constraints: []Goal{Equality(l, r, origin)}, Penalty: 0},
			{Constraints: []Goal{Subtyping(l, r, true, origin)}, Penalty: 1},
		}
		sub := s.schedule(Disjunction(choices, origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, d.Strict))

	case l.IsVariable() && !d.Strict:
		if r.IsLeaf() {
			// The only strict subtype of a leaf is the empty union.
			choices := []Choice{
				{Constraints: []Goal{Equality(l, r, origin)}, Penalty: 0},
				{Constraints: []Goal{Equality(l, types.Never(), origin)}, Penalty: 1},
			}
			sub := s.schedule(Disjunction(choices, origin), id)
			s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, d.Strict))
			return
		}
		choices := []Choice{
			{Constraints: []Goal{Equality(l, r, origin)}, Penalty: 0},
			{Constraints: []Goal{Subtyping(l, r, true, origin)}, Penalty: 1},
		}
		sub := s.schedule(Disjunction(choices, origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, d.Strict))

	case d.Strict && (l.IsVariable() || r.IsVariable()):
		if r.IsLeaf() && !r.IsVariable() {
			// variable < leaf forces the variable to never.
			sub := s.schedule(Equality(l, types.Never(), origin), id)
			s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, true))
			return
		}
		s.postpone(id)

	case l.Remote() != nil:
		// A projection handle subtypes through its bare type.
		sub := s.schedule(Subtyping(l.Remote().Bare, r, d.Strict, origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, d.Strict))

	case r.Kind == types.KindExistential:
		s.solveSubtypingOfExistential(id, l, r, checker)

	case l.Lambda() != nil && r.Lambda() != nil:
		s.solveLambdaSubtyping(id, l.Lambda(), r.Lambda(), l, r)

	case l.Tuple() != nil && r.Tuple() != nil:
		s.solveTupleSubtyping(id, l.Tuple(), r.Tuple(), l, r)

	case !l.Flags.Has(types.FlagCanonical) && !r.Flags.Has(types.FlagCanonical):
		sub := s.schedule(Subtyping(types.Canonical(l), types.Canonical(r), d.Strict, origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, d.Strict))

	default:
		if d.Strict {
			s.fail(id, subtypeDiagnose(origin, l, r, true))
			return
		}
		// Last resort: the relation holds only by equality.
		if f := s.unify(l, r); f != nil {
			s.fail(id, subtypeDiagnose(origin, l, r, false))
			return
		}
		s.succeed(id)
	}
}

// solveSubtypingOfUnion handles L <= union{R1...Rn}.
func (s *System) solveSubtypingOfUnion(id GoalID, l *types.Type, ru *types.UnionType, strict bool) {
	origin := s.goals[id].Origin
	n := len(ru.Members)
	switch n {
	case 0:
		sub := s.schedule(Equality(l, types.Never(), origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, types.Never(), strict))
	case 1:
		sub := s.schedule(Subtyping(l, ru.Members[0], false, origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, ru.Members[0], strict))
	default:
		r := types.NewUnion(ru.Members)
		var choices []Choice
		if !strict {
			choices = append(choices, Choice{Constraints: []Goal{Equality(l, r, origin)}, Penalty: 0})
		}
		for drop := 0; drop < n; drop++ {
			subset := make([]*types.Type, 0, n-1)
			for i, m := range ru.Members {
				if i != drop {
					subset = append(subset, m)
				}
			}
			choices = append(choices, Choice{
				Constraints: []Goal{Subtyping(l, types.NewUnion(subset), false, origin)},
				Penalty:     1,
			})
		}
		sub := s.schedule(Disjunction(choices, origin), id)
		s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, strict))
	}
}

// solveSubtypingOfExistential handles coercion into an existential.
func (s *System) solveSubtypingOfExistential(id GoalID, l, r *types.Type, checker Checker) {
	origin := s.goals[id].Origin
	d := r.Data.(*types.ExistentialType)
	if d.Base == nil {
		// Erasing behind a trait interface is a coercion.
		s.penalties++
		subs := make([]Goal, len(d.Traits))
		for i, trait := range d.Traits {
			subs[i] = Conformance(l, trait, origin)
		}
		s.product(id, s.scheduleAll(subs, id), subtypeDiagnose(origin, l, r, false))
		return
	}
	opened := checker.Open(d.Base, origin.Site, s.FreshVariable)
	sub := s.schedule(Equality(l, opened, origin), id)
	s.product(id, []GoalID{sub}, subtypeDiagnose(origin, l, r, false))
}

// solveLambdaSubtyping decomposes lambda <= lambda: labels must match,
// environments and outputs are covariant, parameters contravariant.
func (s *System) solveLambdaSubtyping(id GoalID, dl, dr *types.LambdaType, l, r *types.Type) {
	origin := s.goals[id].Origin
	if dl.Subscript != dr.Subscript || len(dl.Inputs) != len(dr.Inputs) {
		s.fail(id, subtypeDiagnose(origin, l, r, false))
		return
	}
	if !labelsEqual(types.Labels(dl.Inputs), types.Labels(dr.Inputs)) {
		found, expected := types.Labels(dl.Inputs), types.Labels(dr.Inputs)
		site := origin.Site
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			sink.Report(diagnostic.Error(site, "incompatible labels: found '%s', expected '%s'",
				types.LabelString(found), types.LabelString(expected)))
		})
		return
	}
	var subs []Goal
	subs = append(subs, Subtyping(dl.Environment, dr.Environment, false, origin))
	for i := range dl.Inputs {
		lp, rp := dl.Inputs[i].Type, dr.Inputs[i].Type
		if lpp, rpp := lp.Parameter(), rp.Parameter(); lpp != nil && rpp != nil {
			if lpp.Access != rpp.Access {
				s.fail(id, subtypeDiagnose(origin, l, r, false))
				return
			}
			subs = append(subs, Subtyping(rpp.Bare, lpp.Bare, false, origin))
		} else {
			subs = append(subs, Subtyping(rp, lp, false, origin))
		}
	}
	subs = append(subs, Subtyping(dl.Output, dr.Output, false, origin))
	s.product(id, s.scheduleAll(subs, id), subtypeDiagnose(origin, l, r, false))
}

// solveTupleSubtyping decomposes tuple <= tuple element-wise under
// matching labels.
func (s *System) solveTupleSubtyping(id GoalID, dl, dr *types.TupleType, l, r *types.Type) {
	origin := s.goals[id].Origin
	if len(dl.Elements) != len(dr.Elements) {
		s.fail(id, subtypeDiagnose(origin, l, r, false))
		return
	}
	subs := make([]Goal, 0, len(dl.Elements))
	for i := range dl.Elements {
		if dl.Elements[i].Label != dr.Elements[i].Label {
			s.fail(id, subtypeDiagnose(origin, l, r, false))
			return
		}
		subs = append(subs, Subtyping(dl.Elements[i].Type, dr.Elements[i].Type, false, origin))
	}
	s.product(id, s.scheduleAll(subs, id), subtypeDiagnose(origin, l, r, false))
}

// subtypeDiagnose renders a subtype failure, picking the refined kind
// from the goal's origin.
func subtypeDiagnose(origin Origin, l, r *types.Type, strict bool) DiagnoseFunc {
	site := origin.Site
	kind := origin.Kind
	return func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
		lr := m.Reify(l, types.KeepVariables)
		rr := m.Reify(r, types.KeepVariables)
		switch {
		case kind == OriginInitialization:
			sink.Report(diagnostic.Error(site, "cannot initialize value of type '%s' with '%s'", rr, lr))
		case kind == OriginPatternMatch:
			sink.Report(diagnostic.Error(site, "value of type '%s' does not match pattern of type '%s'", lr, rr))
		case kind == OriginBranchMerge:
			sink.Report(diagnostic.Error(site, "conditional branches have mismatching types '%s' and '%s'", lr, rr))
		case strict:
			sink.Report(diagnostic.Error(site, "'%s' is not strictly subtype of '%s'", lr, rr))
		default:
			sink.Report(diagnostic.Error(site, "'%s' is not subtype of '%s'", lr, rr))
		}
	}
}

// strictSubtypeHolds runs a fresh subsolver to decide whether a is a
// strict subtype of b opened with fresh variables. Used by the
// specificity ranking.
func strictSubtypeHolds(a, b *types.Type, scope types.ScopeID, checker Checker) bool {
	sub := NewSystem(scope, nil, nil)
	opened := checker.Open(b, source.Site{}, sub.FreshVariable)
	sub.insert(Subtyping(a, opened, true, NewOrigin(OriginStructural, source.Site{})))
	sol := sub.Solve(checker)
	return sol != nil && sol.IsSound()
}
