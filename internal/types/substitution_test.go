package types

import "testing"

func TestReifyTransitive(t *testing.T) {
	m := NewSubstitutionMap()
	m.Assign(0, NewVariable(1))
	m.Assign(1, Word)

	got := m.Reify(NewVariable(0), KeepVariables)
	if !Equal(got, Word) {
		t.Errorf("reify should chase bindings transitively, got %s", got)
	}
}

func TestReifyKeepsUnresolved(t *testing.T) {
	m := NewSubstitutionMap()
	m.Assign(0, Word)

	tup := NewTuple([]TupleElement{{Type: NewVariable(0)}, {Type: NewVariable(1)}})
	got := m.Reify(tup, KeepVariables)
	elems := got.Tuple().Elements
	if !Equal(elems[0].Type, Word) {
		t.Errorf("bound variable should reify, got %s", elems[0].Type)
	}
	if !elems[1].Type.IsVariable() {
		t.Errorf("unresolved variable should remain, got %s", elems[1].Type)
	}
}

func TestReifySubstituteByError(t *testing.T) {
	m := NewSubstitutionMap()
	got := m.Reify(NewVariable(3), SubstituteByError)
	if got.Kind != KindError {
		t.Errorf("unresolved variable should become an error term, got %s", got)
	}
}

func TestOptimizedIdempotence(t *testing.T) {
	m := NewSubstitutionMap()
	m.Assign(0, NewVariable(1))
	m.Assign(1, NewTuple([]TupleElement{{Type: NewVariable(2)}}))
	m.Assign(2, Word)

	o := m.Optimized()
	for _, v := range o.Variables() {
		bound, _ := o.Value(v)
		if !Equal(o.Reify(bound, KeepVariables), bound) {
			t.Errorf("optimized binding of %%%d is not a fixed point: %s", v, bound)
		}
	}

	term := NewTuple([]TupleElement{{Type: NewVariable(0)}, {Type: NewVariable(2)}})
	once := o.Reify(term, KeepVariables)
	twice := o.Reify(once, KeepVariables)
	if !Equal(once, twice) {
		t.Errorf("reify is not idempotent: %s vs %s", once, twice)
	}
}

func TestAssignTwicePanics(t *testing.T) {
	m := NewSubstitutionMap()
	m.Assign(0, Word)
	defer func() {
		if recover() == nil {
			t.Error("rebinding a variable should panic")
		}
	}()
	m.Assign(0, Float64)
}

func TestCloneIsolation(t *testing.T) {
	m := NewSubstitutionMap()
	m.Assign(0, Word)
	c := m.Clone()
	c.Assign(1, Float64)
	if _, ok := m.Value(1); ok {
		t.Error("clone mutation leaked into the original")
	}
}
