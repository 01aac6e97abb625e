package constraints_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/constraints"
	"github.com/vela-lang/vela/internal/program"
	"github.com/vela-lang/vela/internal/types"
)

func letLambda(param *types.Type) *types.Type {
	return types.NewLambda(
		[]types.CallableParam{{Label: "x", Type: types.NewParameter(types.AccessLet, param)}},
		types.Unit(), types.Word, false,
	)
}

func TestMemberSingleCandidateBinds(t *testing.T) {
	p := program.New()
	foo := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Foo"}), "Foo")
	fn := p.Declare(program.Decl{Kind: program.DeclFunction, Name: "run", Type: letLambda(types.Word)})
	p.DeclareMember(foo, "run", fn)

	member := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Member(foo, "run", member, 1, constraints.PurposeUse, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("single-candidate member should bind, got %v", sol.Diagnostics())
	}
	ref, ok := sol.Binding(1)
	if !ok || ref.Decl != fn {
		t.Errorf("expression should bind to the candidate, got %v", ref)
	}
	if got := sol.Reify(member); !types.Equal(got, letLambda(types.Word)) {
		t.Errorf("member type should resolve to the candidate type, got %s", got)
	}
}

func TestMemberUndefined(t *testing.T) {
	p := program.New()
	foo := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Foo"}), "Foo")

	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Member(foo, "missing", types.NewVariable(0), 1, constraints.PurposeUse, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("an undefined member must fail")
	}
	if !hasMessage(sol, "has no member 'missing'") {
		t.Errorf("expected an undefined-name diagnostic, got %v", sol.Diagnostics())
	}
}

func TestOverloadPrefersConcreteOverRequirement(t *testing.T) {
	p := program.New()
	foo := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Foo"}), "Foo")
	concrete := p.Declare(program.Decl{Kind: program.DeclFunction, Name: "run", Type: letLambda(types.Word)})
	requirement := p.Declare(program.Decl{Kind: program.DeclRequirement, Name: "run", Type: letLambda(types.Word)})
	p.DeclareMember(foo, "run", concrete)
	p.DeclareMember(foo, "run", requirement)

	member := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Member(foo, "run", member, 1, constraints.PurposeCall, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("overload with a concrete candidate should succeed, got %v", sol.Diagnostics())
	}
	ref, _ := sol.Binding(1)
	if ref.Decl != concrete {
		t.Errorf("the concrete candidate should win, bound %v", ref)
	}
	if got := sol.Score().Penalties; got != 0 {
		t.Errorf("the concrete candidate is penalty-free, got %d", got)
	}
}

func TestOverloadTieIsAmbiguous(t *testing.T) {
	p := program.New()
	foo := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Foo"}), "Foo")
	a := p.Declare(program.Decl{Kind: program.DeclFunction, Name: "run", Type: letLambda(types.Word)})
	b := p.Declare(program.Decl{Kind: program.DeclFunction, Name: "run", Type: letLambda(types.Word)})
	p.DeclareMember(foo, "run", a)
	p.DeclareMember(foo, "run", b)

	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Member(foo, "run", types.NewVariable(0), 1, constraints.PurposeCall, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("a tie between two concrete candidates is ambiguous")
	}
	if !hasMessage(sol, "ambiguous use") {
		t.Errorf("expected an ambiguity diagnostic, got %v", sol.Diagnostics())
	}
}

func TestOverloadPrefersMoreSpecific(t *testing.T) {
	p := program.New()
	foo := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Foo"}), "Foo")
	wide := p.Declare(program.Decl{
		Kind: program.DeclFunction, Name: "run",
		Type: letLambda(types.NewUnion([]*types.Type{types.Word, types.Float64})),
	})
	narrow := p.Declare(program.Decl{Kind: program.DeclFunction, Name: "run", Type: letLambda(types.Word)})
	p.DeclareMember(foo, "run", wide)
	p.DeclareMember(foo, "run", narrow)

	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Member(foo, "run", types.NewVariable(0), 1, constraints.PurposeCall, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("specificity should break the tie, got %v", sol.Diagnostics())
	}
	ref, _ := sol.Binding(1)
	if ref.Decl != narrow {
		t.Errorf("the more specific candidate should win, bound decl#%d", ref.Decl)
	}
}

func TestConformanceMovableStructural(t *testing.T) {
	p := program.New()
	movable := p.Declare(program.Decl{Kind: program.DeclTrait, Name: "Movable"})
	p.MarkBuiltinConcept(movable, constraints.ConceptMovable)

	// A tuple of builtins conforms because every element does.
	pair := types.NewTuple([]types.TupleElement{{Type: types.Word}, {Type: types.Float64}})
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Conformance(pair, movable, initOrigin()),
	}, nil)
	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("a tuple of builtins is movable, got %v", sol.Diagnostics())
	}

	// The empty tuple conforms trivially.
	sys = constraints.NewSystem(0, []constraints.Goal{
		constraints.Conformance(types.Unit(), movable, initOrigin()),
	}, nil)
	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("the empty tuple is movable, got %v", sol.Diagnostics())
	}

	// A product without an explicit conformance is not.
	stranger := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Stranger"}), "Stranger")
	sys = constraints.NewSystem(0, []constraints.Goal{
		constraints.Conformance(stranger, movable, initOrigin()),
	}, nil)
	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("a product without a conformance is not movable")
	}
	if !hasMessage(sol, "does not conform to 'Movable'") {
		t.Errorf("expected a conformance diagnostic, got %v", sol.Diagnostics())
	}
}

func TestConformanceExplicit(t *testing.T) {
	p := program.New()
	movable := p.Declare(program.Decl{Kind: program.DeclTrait, Name: "Movable"})
	p.MarkBuiltinConcept(movable, constraints.ConceptMovable)
	box := types.NewProduct(p.Declare(program.Decl{Kind: program.DeclProduct, Name: "Box"}), "Box")
	p.DeclareConformance(program.Conformance{Model: box, Concept: movable, Scope: 0})

	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Conformance(box, movable, initOrigin()),
	}, nil)
	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("an explicit conformance should settle the goal, got %v", sol.Diagnostics())
	}
}

func TestConformanceForeignConvertible(t *testing.T) {
	p := program.New()
	fc := p.Declare(program.Decl{Kind: program.DeclTrait, Name: "ForeignConvertible"})
	p.MarkBuiltinConcept(fc, constraints.ConceptForeignConvertible)

	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Conformance(types.Word, fc, initOrigin()),
	}, nil)
	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("builtins are foreign-convertible, got %v", sol.Diagnostics())
	}

	pair := types.NewTuple([]types.TupleElement{{Type: types.Word}})
	sys = constraints.NewSystem(0, []constraints.Goal{
		constraints.Conformance(pair, fc, initOrigin()),
	}, nil)
	if sol := sys.Solve(p); sol.IsSound() {
		t.Fatal("only builtins are foreign-convertible")
	}
}

func TestExistentialCoercion(t *testing.T) {
	p := program.New()
	movable := p.Declare(program.Decl{Kind: program.DeclTrait, Name: "Movable"})
	p.MarkBuiltinConcept(movable, constraints.ConceptMovable)
	erased := types.NewTraitExistential([]types.DeclID{movable})

	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(types.Word, erased, false, initOrigin()),
	}, nil)
	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("a movable builtin coerces into the existential, got %v", sol.Diagnostics())
	}
	if got := sol.Score().Penalties; got != 1 {
		t.Errorf("existential coercion costs one penalty, got %d", got)
	}
}

func TestRemoteSubtypesThroughBareType(t *testing.T) {
	p := program.New()
	remote := types.NewRemote(types.AccessLet, types.Word)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(remote, types.Word, false, initOrigin()),
	}, nil)
	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("a projection handle subtypes through its bare type, got %v", sol.Diagnostics())
	}
}
