package ir

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

func demoFunction(m *Module) (FunctionID, BlockID) {
	f := m.DeclareFunction(FunctionSpec{Name: "main", Output: types.Unit()})
	entry := m.AppendEntry(f, 0)
	return f, entry
}

func TestDeclareFunctionOnDemand(t *testing.T) {
	m := NewModule("demo")
	a := m.DeclareFunction(FunctionSpec{Name: "main", Output: types.Unit()})
	b := m.DeclareFunction(FunctionSpec{Name: "main", Output: types.Unit()})
	if a != b {
		t.Error("a second demand for the same name should return the same function")
	}
	if _, ok := m.FunctionNamed("main"); !ok {
		t.Error("declared function should resolve by name")
	}
}

func TestEntryParameterLayout(t *testing.T) {
	m := NewModule("demo")
	f := m.DeclareFunction(FunctionSpec{
		Name: "f",
		Inputs: []types.CallableParam{
			{Label: "x", Type: types.NewParameter(types.AccessLet, types.Word)},
		},
		Output: types.Word,
	})
	entry := m.AppendEntry(f, 0)
	params := m.Block(entry).Params
	if len(params) != 2 {
		t.Fatalf("entry should carry the input plus return storage, got %d params", len(params))
	}
	if params[1].Remote() == nil || params[1].Remote().Access != types.AccessSet {
		t.Errorf("return storage should be a set projection, got %s", params[1])
	}
	if err := m.CheckWellFormed(f); err != nil {
		t.Errorf("well-formed function rejected: %v", err)
	}
}

func TestUseChainsTrackMutations(t *testing.T) {
	m := NewModule("demo")
	_, entry := demoFunction(m)

	slot := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	acc := m.Append(entry, Access{Capabilities: types.Singleton(types.AccessSet)},
		[]Operand{Register(slot)}, types.NewRemote(types.AccessSet, types.Word), source.Site{})

	if got := m.Uses(Register(slot)); len(got) != 1 || got[0].User != acc {
		t.Fatalf("access should use the slot, got %v", got)
	}

	end := m.Append(entry, EndAccess{}, []Operand{Register(acc)}, nil, source.Site{})
	if got := m.Uses(Register(acc)); len(got) != 1 || got[0].User != end {
		t.Fatalf("end_access should use the access, got %v", got)
	}

	m.RemoveInstruction(end)
	if got := m.Uses(Register(acc)); len(got) != 0 {
		t.Errorf("removal should erase uses, got %v", got)
	}
	if m.Instruction(end) != nil {
		t.Error("removed instruction should be gone")
	}
}

func TestRemoveInstructionWithLiveResultPanics(t *testing.T) {
	m := NewModule("demo")
	_, entry := demoFunction(m)
	slot := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	m.Append(entry, Access{Capabilities: types.Singleton(types.AccessLet)},
		[]Operand{Register(slot)}, types.NewRemote(types.AccessLet, types.Word), source.Site{})

	defer func() {
		if recover() == nil {
			t.Error("removing an instruction with live uses must panic")
		}
	}()
	m.RemoveInstruction(slot)
}

func TestReplaceAllUsesRequiresIdenticalTypes(t *testing.T) {
	m := NewModule("demo")
	f, entry := demoFunction(m)

	a := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	b := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	c := m.Append(entry, AllocStack{Allocated: types.Float64}, nil,
		types.NewRemote(types.AccessSet, types.Float64), source.Site{})
	acc := m.Append(entry, Access{Capabilities: types.Singleton(types.AccessLet)},
		[]Operand{Register(a)}, types.NewRemote(types.AccessLet, types.Word), source.Site{})

	if err := m.ReplaceAllUses(Register(a), Register(c), f); err == nil {
		t.Fatal("replacing uses across different types must fail")
	}
	if err := m.ReplaceAllUses(Register(a), Register(b), f); err != nil {
		t.Fatalf("replacing uses with an identical type should succeed: %v", err)
	}
	if got := m.Instruction(acc).Operands[0]; got != Register(b) {
		t.Errorf("use should migrate to the replacement, got %s", got)
	}
	if got := m.Uses(Register(a)); len(got) != 0 {
		t.Errorf("old operand should have no remaining uses, got %v", got)
	}
}

func TestInsertBeforeAndAfter(t *testing.T) {
	m := NewModule("demo")
	_, entry := demoFunction(m)
	ret := m.Append(entry, Return{}, nil, nil, source.Site{})

	slot := m.InsertBefore(ret, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	acc := m.InsertAfter(slot, Access{Capabilities: types.Singleton(types.AccessLet)},
		[]Operand{Register(slot)}, types.NewRemote(types.AccessLet, types.Word), source.Site{})

	insts := m.Block(entry).Instructions
	want := []InstructionID{slot, acc, ret}
	for i, id := range want {
		if insts[i] != id {
			t.Fatalf("instruction order %v, want %v", insts, want)
		}
	}
}

func TestProvenanceRecursesThroughAddressing(t *testing.T) {
	m := NewModule("demo")
	_, entry := demoFunction(m)

	slot := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	acc := m.Append(entry, Access{Capabilities: types.Singleton(types.AccessLet)},
		[]Operand{Register(slot)}, types.NewRemote(types.AccessLet, types.Word), source.Site{})
	view := m.Append(entry, SubfieldView{Field: 0}, []Operand{Register(acc)},
		types.NewRemote(types.AccessLet, types.Word), source.Site{})

	ps := m.Provenances(Register(view))
	if len(ps) != 1 || ps[0] != Register(slot) {
		t.Errorf("provenance should reach the slot, got %v", ps)
	}
}

func TestIsSink(t *testing.T) {
	m := NewModule("demo")
	f := m.DeclareFunction(FunctionSpec{
		Name: "consume",
		Inputs: []types.CallableParam{
			{Label: "x", Type: types.NewParameter(types.AccessSink, types.Word)},
			{Label: "y", Type: types.NewParameter(types.AccessLet, types.Word)},
		},
		Output: types.Unit(),
	})
	entry := m.AppendEntry(f, 0)
	slot := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})

	if !m.IsSink(Register(slot), f) {
		t.Error("an owned slot is sink")
	}
	if !m.IsSink(Param(entry, 0), f) {
		t.Error("a sink input is sink")
	}
	if m.IsSink(Param(entry, 1), f) {
		t.Error("a let input is not sink")
	}
}

func TestTerminatorPlacement(t *testing.T) {
	m := NewModule("demo")
	f, entry := demoFunction(m)
	ret := m.Append(entry, Return{}, nil, nil, source.Site{})
	if err := m.CheckWellFormed(f); err != nil {
		t.Fatalf("terminator at tail is fine: %v", err)
	}
	m.InsertAfter(ret, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	if err := m.CheckWellFormed(f); err == nil {
		t.Fatal("a terminator before the block tail must be rejected")
	}
}

func TestModulePrintGolden(t *testing.T) {
	m := NewModule("demo")
	_, entry := demoFunction(m)

	slot := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
		types.NewRemote(types.AccessSet, types.Word), source.Site{})
	acc := m.Append(entry, Access{Capabilities: types.Singleton(types.AccessSet)},
		[]Operand{Register(slot)}, types.NewRemote(types.AccessSet, types.Word), source.Site{})
	m.Append(entry, Initialize{}, []Operand{Register(acc), ConstantOperand(WordConstant{Value: 42})},
		nil, source.Site{})
	m.Append(entry, EndAccess{}, []Operand{Register(acc)}, nil, source.Site{})
	m.Append(entry, Return{}, nil, nil, source.Site{})

	g := goldie.New(t)
	g.Assert(t, "module_print", []byte(m.String()))
}

func TestPrintDeterministic(t *testing.T) {
	build := func() string {
		m := NewModule("demo")
		_, entry := demoFunction(m)
		slot := m.Append(entry, AllocStack{Allocated: types.Word}, nil,
			types.NewRemote(types.AccessSet, types.Word), source.Site{})
		m.Append(entry, Access{Capabilities: types.Singleton(types.AccessLet)},
			[]Operand{Register(slot)}, types.NewRemote(types.AccessLet, types.Word), source.Site{})
		m.Append(entry, Return{}, nil, nil, source.Site{})
		return m.String()
	}
	if build() != build() {
		t.Error("textual output must be equal across deterministic runs")
	}
}
