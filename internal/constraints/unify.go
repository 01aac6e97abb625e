package constraints

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// unifyFailureKind refines why unification rejected a pair of terms.
type unifyFailureKind int

const (
	unifyIncompatible unifyFailureKind = iota
	unifyLabels
	unifyOccurs
)

// unifyFailure describes a structural mismatch. The types recorded here
// are the operands at the point of mismatch, before final reification.
type unifyFailure struct {
	kind     unifyFailureKind
	l, r     *types.Type
	found    []string
	expected []string
}

// solveEquality runs unification for an equality goal.
func (s *System) solveEquality(id GoalID) {
	d := s.goals[id].Data.(*EqualityGoal)
	if f := s.unify(d.L, d.R); f != nil {
		site := s.goals[id].Origin.Site
		s.fail(id, equalityDiagnose(site, d.L, d.R, f))
		return
	}
	s.succeed(id)
}

func equalityDiagnose(origin source.Site, l, r *types.Type, f *unifyFailure) DiagnoseFunc {
	return func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
		switch f.kind {
		case unifyLabels:
			sink.Report(diagnostic.Error(origin, "incompatible labels: found '%s', expected '%s'",
				types.LabelString(f.found), types.LabelString(f.expected)))
		case unifyOccurs:
			sink.Report(diagnostic.Error(origin, "infinite type: %s occurs in %s",
				m.Reify(f.l, types.KeepVariables), m.Reify(f.r, types.KeepVariables)))
		default:
			sink.Report(diagnostic.Error(origin, "incompatible types '%s' and '%s'",
				m.Reify(l, types.KeepVariables), m.Reify(r, types.KeepVariables)))
		}
	}
}

// unify walks both sides under the current substitution. When either
// side is an unbound variable it assumes the variable equals the other
// side, awakening stale goals. Identically-shaped constructors
// decompose; structural mismatch fails.
func (s *System) unify(l, r *types.Type) *unifyFailure {
	l = s.typeAssumptions.Reify(l, types.KeepVariables)
	r = s.typeAssumptions.Reify(r, types.KeepVariables)

	if types.Equal(l, r) {
		return nil
	}

	if v := l.Variable(); v != nil {
		return s.assumeUnified(v.ID, r)
	}
	if v := r.Variable(); v != nil {
		return s.assumeUnified(v.ID, l)
	}

	if !l.Flags.Has(types.FlagCanonical) || !r.Flags.Has(types.FlagCanonical) {
		l = types.Canonical(l)
		r = types.Canonical(r)
		if types.Equal(l, r) {
			return nil
		}
	}

	if l.Kind != r.Kind {
		return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
	}

	switch l.Kind {
	case types.KindTuple:
		dl, dr := l.Tuple(), r.Tuple()
		if len(dl.Elements) != len(dr.Elements) {
			return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
		}
		for i := range dl.Elements {
			if dl.Elements[i].Label != dr.Elements[i].Label {
				return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
			}
			if f := s.unify(dl.Elements[i].Type, dr.Elements[i].Type); f != nil {
				return f
			}
		}
		return nil

	case types.KindLambda:
		dl, dr := l.Lambda(), r.Lambda()
		if dl.Subscript != dr.Subscript {
			return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
		}
		// Label sequences must match.
		if !labelsEqual(types.Labels(dl.Inputs), types.Labels(dr.Inputs)) {
			return &unifyFailure{
				kind: unifyLabels, l: l, r: r,
				found: types.Labels(dl.Inputs), expected: types.Labels(dr.Inputs),
			}
		}
		for i := range dl.Inputs {
			if f := s.unify(dl.Inputs[i].Type, dr.Inputs[i].Type); f != nil {
				return f
			}
		}
		if f := s.unify(dl.Environment, dr.Environment); f != nil {
			return f
		}
		return s.unify(dl.Output, dr.Output)

	case types.KindMethod:
		dl, dr := l.Method(), r.Method()
		// Capability sets must match.
		if dl.Capabilities != dr.Capabilities {
			return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
		}
		if !labelsEqual(types.Labels(dl.Inputs), types.Labels(dr.Inputs)) {
			return &unifyFailure{
				kind: unifyLabels, l: l, r: r,
				found: types.Labels(dl.Inputs), expected: types.Labels(dr.Inputs),
			}
		}
		if f := s.unify(dl.Receiver, dr.Receiver); f != nil {
			return f
		}
		for i := range dl.Inputs {
			if f := s.unify(dl.Inputs[i].Type, dr.Inputs[i].Type); f != nil {
				return f
			}
		}
		return s.unify(dl.Output, dr.Output)

	case types.KindParameter:
		dl, dr := l.Parameter(), r.Parameter()
		// Access effects must match.
		if dl.Access != dr.Access {
			return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
		}
		return s.unify(dl.Bare, dr.Bare)

	case types.KindRemote:
		dl, dr := l.Remote(), r.Remote()
		if dl.Access != dr.Access {
			return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
		}
		return s.unify(dl.Bare, dr.Bare)

	case types.KindMetatype:
		return s.unify(l.Data.(*types.MetatypeType).Instance, r.Data.(*types.MetatypeType).Instance)

	case types.KindBoundGeneric:
		dl := l.Data.(*types.BoundGenericType)
		dr := r.Data.(*types.BoundGenericType)
		if f := s.unify(dl.Base, dr.Base); f != nil {
			return f
		}
		if len(dl.Arguments) != len(dr.Arguments) {
			return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
		}
		// Argument maps are checked element-wise against matching keys.
		for _, a := range dl.Arguments {
			matched := false
			for _, b := range dr.Arguments {
				if a.Key == b.Key {
					if f := s.unify(a.Value, b.Value); f != nil {
						return f
					}
					matched = true
					break
				}
			}
			if !matched {
				return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
			}
		}
		return nil

	default:
		return &unifyFailure{kind: unifyIncompatible, l: l, r: r}
	}
}

// assumeUnified binds variable v to t, rejecting infinite terms.
func (s *System) assumeUnified(v types.VariableID, t *types.Type) *unifyFailure {
	for _, u := range t.FreeVariables() {
		if u == v {
			return &unifyFailure{kind: unifyOccurs, l: types.NewVariable(v), r: t}
		}
	}
	s.assume(v, t)
	return nil
}

func labelsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
