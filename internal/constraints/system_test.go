package constraints_test

import (
	"strings"
	"testing"

	"github.com/vela-lang/vela/internal/constraints"
	"github.com/vela-lang/vela/internal/program"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

var testSite = source.Site{File: "test.vela", Line: 1, Column: 1}

func initOrigin() constraints.Origin {
	return constraints.NewOrigin(constraints.OriginInitialization, testSite)
}

func hasMessage(sol *constraints.Solution, fragment string) bool {
	for _, d := range sol.Diagnostics() {
		if strings.Contains(d.Message, fragment) {
			return true
		}
	}
	return false
}

func TestEqualityBindsVariable(t *testing.T) {
	p := program.New()
	v := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Equality(v, types.Word, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol == nil || !sol.IsSound() {
		t.Fatalf("expected a sound solution, got %v", sol)
	}
	if got := sol.Reify(v); !types.Equal(got, types.Word) {
		t.Errorf("variable should resolve to word, got %s", got)
	}
}

func TestEqualityIncompatible(t *testing.T) {
	p := program.New()
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Equality(types.Word, types.Float64, initOrigin()),
	}, nil)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("word and float64 must not unify")
	}
	if !hasMessage(sol, "incompatible types") {
		t.Errorf("expected a unification diagnostic, got %v", sol.Diagnostics())
	}
}

func TestUnionWidening(t *testing.T) {
	// let x: Union<Int, Bool> = 0 as Int
	p := program.New()
	u := types.NewUnion([]*types.Type{types.Word, types.Float64})
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(types.Word, u, false, initOrigin()),
	}, nil)

	sol := sys.Solve(p)
	if sol == nil || !sol.IsSound() {
		t.Fatalf("widening into a union should succeed, got %v", sol)
	}
	if got := sol.Score().Penalties; got != 1 {
		t.Errorf("widening should cost one penalty, got %d", got)
	}
}

func TestSubtypingIntoVariablePrefersEquality(t *testing.T) {
	p := program.New()
	v := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(types.Word, v, false, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol == nil || !sol.IsSound() {
		t.Fatalf("inference against a variable should succeed, got %v", sol)
	}
	if got := sol.Score().Penalties; got != 0 {
		t.Errorf("the equality alternative is penalty-free, got %d", got)
	}
	if got := sol.Reify(v); !types.Equal(got, types.Word) {
		t.Errorf("variable should resolve to word, got %s", got)
	}
}

func TestSubtypingEmptyUnionRequiresNever(t *testing.T) {
	p := program.New()
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(types.Word, types.Never(), false, initOrigin()),
	}, nil)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("a builtin is not a subtype of never")
	}
}

func TestStrictSubtypingRejectsEquivalence(t *testing.T) {
	p := program.New()
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(types.Word, types.Word, true, initOrigin()),
	}, nil)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("strict subtyping must fail on equivalent types")
	}
}

func TestLambdaLabelMismatch(t *testing.T) {
	// let _: [](x: Int) -> Int = fun (y: Int) { 42 }
	p := program.New()
	found := types.NewLambda(
		[]types.CallableParam{{Label: "y", Type: types.NewParameter(types.AccessLet, types.Word)}},
		types.Unit(), types.Word, false,
	)
	expected := types.NewLambda(
		[]types.CallableParam{{Label: "x", Type: types.NewParameter(types.AccessLet, types.Word)}},
		types.Unit(), types.Word, false,
	)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Subtyping(found, expected, false, initOrigin()),
	}, nil)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("mismatched labels must be rejected")
	}
	if !hasMessage(sol, "incompatible labels: found '(y:)', expected '(x:)'") {
		t.Errorf("expected the label diagnostic, got %v", sol.Diagnostics())
	}
}

func TestLambdaInference(t *testing.T) {
	// let f = fun (x: sink Int) { x } infers [](x: sink Int) -> Int.
	p := program.New()
	output := types.NewVariable(0)
	schema := types.NewLambda(
		[]types.CallableParam{{Label: "x", Type: types.NewParameter(types.AccessSink, types.Word)}},
		types.Unit(), output, false,
	)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Equality(output, types.Word, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("lambda body inference should succeed, got %v", sol.Diagnostics())
	}
	want := types.NewLambda(
		[]types.CallableParam{{Label: "x", Type: types.NewParameter(types.AccessSink, types.Word)}},
		types.Unit(), types.Word, false,
	)
	if got := sol.Reify(schema); !types.Equal(got, want) {
		t.Errorf("inferred %s, want %s", got, want)
	}
}

func TestCallMatchesLabelsAndDefaults(t *testing.T) {
	p := program.New()
	callee := types.NewLambda(
		[]types.CallableParam{
			{Label: "x", Type: types.NewParameter(types.AccessLet, types.Word)},
			{Label: "scale", Type: types.NewParameter(types.AccessLet, types.Float64), HasDefault: true},
		},
		types.Unit(), types.Word, false,
	)
	out := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Call(callee, []string{"x"}, []*types.Type{types.Word}, out, true, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("call with a skipped defaulted parameter should succeed, got %v", sol.Diagnostics())
	}
	if got := sol.Reify(out); !types.Equal(got, types.Word) {
		t.Errorf("call output should be word, got %s", got)
	}
}

func TestCallLabelMismatch(t *testing.T) {
	p := program.New()
	callee := types.NewLambda(
		[]types.CallableParam{{Label: "x", Type: types.NewParameter(types.AccessLet, types.Word)}},
		types.Unit(), types.Word, false,
	)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Call(callee, []string{"z"}, []*types.Type{types.Word}, types.NewVariable(0), true, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("a call with wrong labels must fail")
	}
	if !hasMessage(sol, "incompatible labels") {
		t.Errorf("expected a label diagnostic, got %v", sol.Diagnostics())
	}
}

func TestCallOnNonCallable(t *testing.T) {
	p := program.New()
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Call(types.Word, nil, nil, types.NewVariable(0), true, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("calling a builtin must fail")
	}
	if !hasMessage(sol, "is not a function") {
		t.Errorf("expected a callee diagnostic, got %v", sol.Diagnostics())
	}
}

func TestCallOnSubscriptFlag(t *testing.T) {
	p := program.New()
	sub := types.NewLambda(
		[]types.CallableParam{{Label: "i", Type: types.NewParameter(types.AccessLet, types.Word)}},
		types.Unit(), types.Word, true,
	)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Call(sub, []string{"i"}, []*types.Type{types.Word}, types.NewVariable(0), true, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("a subscript is not callable as a function")
	}
}

func TestTupleMember(t *testing.T) {
	p := program.New()
	subject := types.NewTuple([]types.TupleElement{{Type: types.Word}, {Type: types.Float64}})
	elem := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.TupleMember(subject, 1, elem, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("tuple member in range should succeed, got %v", sol.Diagnostics())
	}
	if got := sol.Reify(elem); !types.Equal(got, types.Float64) {
		t.Errorf("element 1 should be float64, got %s", got)
	}
}

func TestTupleMemberOutOfRange(t *testing.T) {
	p := program.New()
	subject := types.NewTuple([]types.TupleElement{{Type: types.Word}})
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.TupleMember(subject, 5, types.NewVariable(0), initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("an out-of-range index must fail")
	}
	if !hasMessage(sol, "tuple index 5 out of range") {
		t.Errorf("expected an index diagnostic, got %v", sol.Diagnostics())
	}
}

func TestMergingBranches(t *testing.T) {
	p := program.New()
	join := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Merging(join, []*types.Type{types.Word, types.Word}, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if !sol.IsSound() {
		t.Fatalf("agreeing branches should merge, got %v", sol.Diagnostics())
	}
	if got := sol.Reify(join); !types.Equal(got, types.Word) {
		t.Errorf("join should be word, got %s", got)
	}
}

func TestMergingMismatch(t *testing.T) {
	p := program.New()
	join := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Merging(join, []*types.Type{types.Word, types.Float64}, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("disagreeing branches must not merge")
	}
	if !hasMessage(sol, "conditional branches have mismatching types") {
		t.Errorf("expected a branch diagnostic, got %v", sol.Diagnostics())
	}
}

func TestMergingEmptySucceeds(t *testing.T) {
	p := program.New()
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Merging(types.NewVariable(0), nil, initOrigin()),
	}, nil)
	sys.ReserveVariables(0)

	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("an empty merge succeeds trivially, got %v", sol.Diagnostics())
	}
}

func TestStaleGoalFails(t *testing.T) {
	p := program.New()
	subject := types.NewVariable(0)
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Member(subject, "x", types.NewVariable(1), 1, constraints.PurposeUse, initOrigin()),
	}, nil)
	sys.ReserveVariables(1)

	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("an undecidable member goal must fail")
	}
	if len(sol.Stale()) != 1 {
		t.Errorf("expected 1 stale goal, got %d", len(sol.Stale()))
	}
	if !hasMessage(sol, "not enough context") {
		t.Errorf("expected a context diagnostic, got %v", sol.Diagnostics())
	}
}

func TestParameterPassing(t *testing.T) {
	p := program.New()
	sys := constraints.NewSystem(0, []constraints.Goal{
		constraints.Parameter(types.Word, types.NewParameter(types.AccessLet, types.Word), initOrigin()),
	}, nil)
	if sol := sys.Solve(p); !sol.IsSound() {
		t.Fatalf("word should pass to a let word parameter, got %v", sol.Diagnostics())
	}

	sys = constraints.NewSystem(0, []constraints.Goal{
		constraints.Parameter(types.Word, types.Float64, initOrigin()),
	}, nil)
	sol := sys.Solve(p)
	if sol.IsSound() {
		t.Fatal("a non-parameter right-hand side is invalid")
	}
	if !hasMessage(sol, "invalid parameter type") {
		t.Errorf("expected an invalid-parameter diagnostic, got %v", sol.Diagnostics())
	}
}
