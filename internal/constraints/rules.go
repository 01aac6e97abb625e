package constraints

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/types"
)

// solveConformance decides whether a model conforms to a concept.
func (s *System) solveConformance(id GoalID, checker Checker) {
	d := s.goals[id].Data.(*ConformanceGoal)
	origin := s.goals[id].Origin
	model := d.Model

	if model.IsVariable() {
		s.postpone(id)
		return
	}

	// An explicit conformance in scope settles the goal.
	for _, trait := range checker.ConformedTraits(model, s.scope) {
		if trait == d.Concept {
			s.succeed(id)
			return
		}
	}

	switch checker.BuiltinConcept(d.Concept) {
	case ConceptMovable:
		if model.Kind == types.KindBuiltin {
			s.succeed(id)
			return
		}
		// Structural conformance: all elements or members conform; the
		// empty tuple and the empty union conform trivially.
		if t := model.Tuple(); t != nil {
			subs := make([]Goal, len(t.Elements))
			for i, e := range t.Elements {
				subs[i] = Conformance(e.Type, d.Concept, origin)
			}
			s.product(id, s.scheduleAll(subs, id), conformanceDiagnose(origin, model, d.Concept, checker))
			return
		}
		if u := model.Union(); u != nil {
			subs := make([]Goal, len(u.Members))
			for i, m := range u.Members {
				subs[i] = Conformance(m, d.Concept, origin)
			}
			s.product(id, s.scheduleAll(subs, id), conformanceDiagnose(origin, model, d.Concept, checker))
			return
		}
	case ConceptForeignConvertible:
		if model.Kind == types.KindBuiltin {
			s.succeed(id)
			return
		}
	}

	s.fail(id, conformanceDiagnose(origin, model, d.Concept, checker))
}

func conformanceDiagnose(origin Origin, model *types.Type, concept types.DeclID, checker Checker) DiagnoseFunc {
	site := origin.Site
	name := checker.DeclName(concept)
	return func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
		sink.Report(diagnostic.Error(site, "type '%s' does not conform to '%s'",
			m.Reify(model, types.KeepVariables), name))
	}
}

// solveParameter decides whether an argument type passes to a parameter
// type.
func (s *System) solveParameter(id GoalID) {
	d := s.goals[id].Data.(*ParameterGoal)
	origin := s.goals[id].Origin

	if d.R.IsVariable() {
		s.postpone(id)
		return
	}
	p := d.R.Parameter()
	if p == nil {
		site := origin.Site
		r := d.R
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			sink.Report(diagnostic.Error(site, "invalid parameter type '%s'",
				m.Reify(r, types.KeepVariables)))
		})
		return
	}

	sub := s.schedule(Subtyping(d.L, p.Bare, false, origin), id)
	site := origin.Site
	l, r := d.L, d.R
	s.product(id, []GoalID{sub}, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
		sink.Report(diagnostic.Error(site, "cannot pass value of type '%s' to parameter '%s'",
			m.Reify(l, types.KeepVariables), m.Reify(r, types.KeepVariables)))
	})
}

// solveMember resolves a name on a subject type through the external
// resolver.
func (s *System) solveMember(id GoalID, checker Checker) {
	d := s.goals[id].Data.(*MemberGoal)
	origin := s.goals[id].Origin

	if d.Subject.IsVariable() {
		s.postpone(id)
		return
	}

	candidates := checker.Resolve(d.Name, nil, d.Subject, s.scope, d.Purpose)
	if len(candidates) == 0 {
		site := origin.Site
		name, subject := d.Name, d.Subject
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			sink.Report(diagnostic.Error(site, "type '%s' has no member '%s'",
				m.Reify(subject, types.KeepVariables), name))
		})
		return
	}

	viable := make([]Candidate, 0, len(candidates))
	var rejected []diagnostic.Diagnostic
	for _, c := range candidates {
		if c.Viable {
			viable = append(viable, c)
		} else {
			rejected = append(rejected, c.Diagnostic)
		}
	}

	switch len(viable) {
	case 0:
		site := origin.Site
		name := d.Name
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			top := diagnostic.Error(site, "no viable candidate for '%s'", name)
			for _, r := range rejected {
				top = top.WithNote(r)
			}
			sink.Report(top)
		})

	case 1:
		c := viable[0]
		s.bindingAssumptions[d.MemberExpr] = c.Reference
		subs := append([]Goal(nil), c.Constraints...)
		subs = append(subs, Equality(c.Type, d.MemberType, origin))
		s.product(id, s.scheduleAll(subs, id), nil)

	default:
		// Candidates satisfying requirements incur a penalty so concrete
		// implementations win ties.
		for i := range viable {
			if checker.IsRequirement(viable[i].Reference.Decl) {
				viable[i].Penalty++
			}
		}
		for i := range viable {
			viable[i].Constraints = append(append([]Goal(nil), viable[i].Constraints...),
				Equality(viable[i].Type, d.MemberType, origin))
		}
		sub := s.schedule(Overload(d.MemberExpr, d.MemberType, viable, origin), id)
		s.product(id, []GoalID{sub}, nil)
	}
}

// solveTupleMember projects an indexed tuple element.
func (s *System) solveTupleMember(id GoalID) {
	d := s.goals[id].Data.(*TupleMemberGoal)
	origin := s.goals[id].Origin

	if d.Subject.IsVariable() {
		s.postpone(id)
		return
	}

	t := d.Subject.Tuple()
	if t == nil || d.Index < 0 || d.Index >= len(t.Elements) {
		site := origin.Site
		subject, index := d.Subject, d.Index
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			sink.Report(diagnostic.Error(site, "tuple index %d out of range for '%s'",
				index, m.Reify(subject, types.KeepVariables)))
		})
		return
	}

	sub := s.schedule(Equality(t.Elements[d.Index].Type, d.ElementType, origin), id)
	s.product(id, []GoalID{sub}, nil)
}

// solveCall matches labeled arguments against a callable's parameters.
func (s *System) solveCall(id GoalID) {
	d := s.goals[id].Data.(*CallGoal)
	origin := s.goals[id].Origin

	if d.Callee.IsVariable() {
		s.postpone(id)
		return
	}

	if !d.Callee.IsCallable(d.Arrow) {
		site := origin.Site
		callee := d.Callee
		arrow := d.Arrow
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			what := "function"
			if !arrow {
				what = "subscript"
			}
			sink.Report(diagnostic.Error(site, "value of type '%s' is not a %s",
				m.Reify(callee, types.KeepVariables), what))
		})
		return
	}

	callee := d.Callee.Lambda()
	pairs, ok := matchArgumentLabels(d.Labels, callee.Inputs)
	if !ok {
		site := origin.Site
		found := d.Labels
		expected := types.Labels(callee.Inputs)
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			sink.Report(diagnostic.Error(site, "incompatible labels: found '%s', expected '%s'",
				types.LabelString(found), types.LabelString(expected)))
		})
		return
	}

	subs := make([]Goal, 0, len(pairs)+1)
	for _, p := range pairs {
		subs = append(subs, Parameter(d.Arguments[p.argument], callee.Inputs[p.parameter].Type,
			Origin{Site: origin.Site, Kind: OriginArgument, Parent: origin.Parent}))
	}
	subs = append(subs, Equality(callee.Output, d.Output, origin))
	s.product(id, s.scheduleAll(subs, id), nil)
}

// argumentPair relates an argument position to the parameter consuming it.
type argumentPair struct {
	argument  int
	parameter int
}

// matchArgumentLabels walks parameters left-to-right, consuming each
// present argument whose label matches and skipping parameters that have
// defaults. It reports failure when a required parameter is skipped or
// arguments remain unconsumed.
func matchArgumentLabels(labels []string, params []types.CallableParam) ([]argumentPair, bool) {
	var pairs []argumentPair
	next := 0
	for i, p := range params {
		if next < len(labels) && labels[next] == p.Label {
			pairs = append(pairs, argumentPair{argument: next, parameter: i})
			next++
			continue
		}
		if p.HasDefault {
			continue
		}
		return nil, false
	}
	if next != len(labels) {
		return nil, false
	}
	return pairs, true
}

// solveMerging joins conditional branches under a shared supertype.
func (s *System) solveMerging(id GoalID) {
	d := s.goals[id].Data.(*MergingGoal)
	origin := s.goals[id].Origin

	if len(d.Branches) == 0 {
		s.succeed(id)
		return
	}
	subs := make([]Goal, len(d.Branches))
	for i, b := range d.Branches {
		subs[i] = Subtyping(b, d.Supertype, false,
			Origin{Site: origin.Site, Kind: OriginBranchMerge, Parent: origin.Parent})
	}
	s.product(id, s.scheduleAll(subs, id), nil)
}
