package types

import "testing"

func TestFlagsPropagate(t *testing.T) {
	v := NewVariable(0)
	if !v.Flags.Has(FlagHasVariable) {
		t.Fatal("variable should carry the has-variable flag")
	}

	tup := NewTuple([]TupleElement{{Type: Word}, {Type: v}})
	if !tup.Flags.Has(FlagHasVariable) {
		t.Error("tuple containing a variable should carry the has-variable flag")
	}

	clean := NewTuple([]TupleElement{{Type: Word}, {Type: Float64}})
	if clean.Flags.Has(FlagHasVariable) {
		t.Error("tuple of builtins should not carry the has-variable flag")
	}
	if !clean.Flags.Has(FlagCanonical) {
		t.Error("tuple of canonical elements should be canonical")
	}

	poisoned := NewTuple([]TupleElement{{Type: NewError()}})
	if !poisoned.Flags.Has(FlagHasError) {
		t.Error("tuple containing an error should carry the has-error flag")
	}
}

func TestEqualUnionsAsSets(t *testing.T) {
	a := NewUnion([]*Type{Word, Float64})
	b := NewUnion([]*Type{Float64, Word})
	if !Equal(a, b) {
		t.Error("unions should compare as sets")
	}

	c := NewUnion([]*Type{Word})
	if Equal(a, c) {
		t.Error("unions of different cardinality should differ")
	}
}

func TestEqualThroughAlias(t *testing.T) {
	alias := NewAlias(7, "Scalar", Float64)
	if !Equal(alias, Float64) {
		t.Error("an alias should equal its aliasee")
	}
	if alias.Flags.Has(FlagCanonical) {
		t.Error("aliases are never canonical")
	}
}

func TestCanonicalSortsAndDedupes(t *testing.T) {
	u := NewUnion([]*Type{Float64, Word, Float64})
	c := Canonical(u)
	members := c.Union().Members
	if len(members) != 2 {
		t.Fatalf("expected 2 members after dedupe, got %d", len(members))
	}
	if Compare(members[0], members[1]) >= 0 {
		t.Error("canonical union members should be ordered")
	}
	if !c.Flags.Has(FlagCanonical) {
		t.Error("canonicalized union should carry the canonical flag")
	}
}

func TestCanonicalFlattensNestedUnions(t *testing.T) {
	inner := NewUnion([]*Type{Word, Float64})
	outer := NewUnion([]*Type{inner, I1})
	c := Canonical(outer)
	if got := len(c.Union().Members); got != 3 {
		t.Fatalf("expected flattened union of 3 members, got %d", got)
	}
}

func TestCanonicalCollapsesSingleton(t *testing.T) {
	u := NewUnion([]*Type{Word, Word})
	c := Canonical(u)
	if c.Kind != KindBuiltin {
		t.Errorf("union with one distinct member should canonicalize to it, got %s", c)
	}
}

func TestCanonicalExpandsAlias(t *testing.T) {
	alias := NewAlias(3, "Scalar", Float64)
	c := Canonical(alias)
	if c.Kind != KindBuiltin || c.Data.(*BuiltinType).Which != BuiltinFloat64 {
		t.Errorf("alias should canonicalize to its aliasee, got %s", c)
	}
}

func TestCanonicalBreaksAliasCycle(t *testing.T) {
	// A self-referential alias through generic arguments is a fixed
	// point, not an error.
	inner := NewGenericParam(1, "T")
	cyclic := NewAlias(9, "Loop", NewBoundGeneric(NewProduct(2, "Box"), []TypeArgument{{Key: "T", Value: inner}}))
	cyclic.Data.(*AliasType).Aliasee = NewBoundGeneric(cyclic, []TypeArgument{{Key: "T", Value: inner}})

	c := Canonical(cyclic)
	if c == nil {
		t.Fatal("canonicalization of a cyclic alias returned nil")
	}
}

func TestTransformPreservesIdentity(t *testing.T) {
	tup := NewTuple([]TupleElement{{Type: Word}, {Type: Float64}})
	same := tup.Transform(func(u *Type) (*Type, TransformAction) { return u, StepInto })
	if same != tup {
		t.Error("identity transform should preserve term identity")
	}
}

func TestTransformRewrites(t *testing.T) {
	v := NewVariable(4)
	lam := NewLambda(
		[]CallableParam{{Label: "x", Type: NewParameter(AccessSink, v)}},
		Unit(), v, false,
	)
	out := lam.Transform(func(u *Type) (*Type, TransformAction) {
		if u.IsVariable() {
			return Word, StepOver
		}
		return u, StepInto
	})
	d := out.Lambda()
	if !Equal(d.Output, Word) {
		t.Errorf("output should rewrite to word, got %s", d.Output)
	}
	if !Equal(d.Inputs[0].Type.Parameter().Bare, Word) {
		t.Errorf("parameter bare type should rewrite to word, got %s", d.Inputs[0].Type)
	}
	if out.Flags.Has(FlagHasVariable) {
		t.Error("rewritten lambda should not mention variables")
	}
}

func TestFreeVariables(t *testing.T) {
	v0, v1 := NewVariable(0), NewVariable(1)
	tup := NewTuple([]TupleElement{{Type: v0}, {Type: v1}, {Type: v0}})
	vars := tup.FreeVariables()
	if len(vars) != 2 {
		t.Fatalf("expected 2 distinct variables, got %v", vars)
	}
	if Word.FreeVariables() != nil {
		t.Error("builtins mention no variables")
	}
}

func TestIsLeaf(t *testing.T) {
	if !Word.IsLeaf() || !NewVariable(0).IsLeaf() || !Never().IsLeaf() {
		t.Error("builtins, variables and never are leaves")
	}
	if NewTuple([]TupleElement{{Type: Word}}).IsLeaf() {
		t.Error("a nonempty tuple is not a leaf")
	}
}

func TestLabelString(t *testing.T) {
	if got := LabelString([]string{"x"}); got != "(x:)" {
		t.Errorf("got %q", got)
	}
	if got := LabelString([]string{"", "y"}); got != "(_:y:)" {
		t.Errorf("got %q", got)
	}
}
