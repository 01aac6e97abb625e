// Package ir defines the typed intermediate representation produced
// after type checking. It is ownership-aware and structured so the
// mandatory passes can enforce the law of exclusivity before lowering.
package ir

import (
	"fmt"

	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// FunctionID identifies a function in a module.
type FunctionID int

// BlockID identifies a basic block in a module.
type BlockID int

// InstructionID identifies an instruction in a module.
type InstructionID int

// Linkage determines a function's visibility across modules.
type Linkage int

const (
	LinkageModule Linkage = iota
	LinkageExternal
)

func (l Linkage) String() string {
	if l == LinkageExternal {
		return "external"
	}
	return "module"
}

// Function is a collection of basic blocks with a signature.
type Function struct {
	ID            FunctionID
	Name          string
	Site          source.Site
	Linkage       Linkage
	GenericParams []types.DeclID
	Inputs        []types.CallableParam
	Output        *types.Type
	Subscript     bool
	Blocks        []BlockID
}

// Entry returns the function's entry block, if any.
func (f *Function) Entry() (BlockID, bool) {
	if len(f.Blocks) == 0 {
		return 0, false
	}
	return f.Blocks[0], true
}

// Block is a sequence of instructions ending with a terminator.
type Block struct {
	ID           BlockID
	Function     FunctionID
	Scope        types.ScopeID
	Params       []*types.Type
	Instructions []InstructionID
}

// Instruction applies an operation to operands, optionally producing a
// typed result.
type Instruction struct {
	ID       InstructionID
	Block    BlockID
	Op       Operation
	Operands []Operand
	Result   *types.Type
	Site     source.Site
}

// OperandKind classifies an operand.
type OperandKind int

const (
	// OperandRegister is the result of an instruction.
	OperandRegister OperandKind = iota
	// OperandParameter is a block parameter.
	OperandParameter
	// OperandConstant is an immediate value.
	OperandConstant
)

// Operand is a value reference: a register, a block parameter, or a
// constant. Operands are value types and usable as map keys.
type Operand struct {
	Kind        OperandKind
	Instruction InstructionID
	Block       BlockID
	Index       int
	Constant    Constant
}

// Register creates a register operand.
func Register(i InstructionID) Operand {
	return Operand{Kind: OperandRegister, Instruction: i}
}

// Param creates a block-parameter operand.
func Param(b BlockID, index int) Operand {
	return Operand{Kind: OperandParameter, Block: b, Index: index}
}

// ConstantOperand creates a constant operand.
func ConstantOperand(c Constant) Operand {
	return Operand{Kind: OperandConstant, Constant: c}
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandRegister:
		return fmt.Sprintf("%%%d", o.Instruction)
	case OperandParameter:
		return fmt.Sprintf("%%b%d.%d", o.Block, o.Index)
	case OperandConstant:
		return o.Constant.String()
	default:
		return "<invalid>"
	}
}

// Constant is an immediate operand value.
type Constant interface {
	String() string
	Type() *types.Type
	isConstant()
}

// WordConstant is an integer immediate.
type WordConstant struct {
	Value int64
}

func (WordConstant) isConstant()        {}
func (c WordConstant) String() string   { return fmt.Sprintf("word %d", c.Value) }
func (c WordConstant) Type() *types.Type { return types.Word }

// FloatConstant is a floating-point immediate.
type FloatConstant struct {
	Value float64
}

func (FloatConstant) isConstant()        {}
func (c FloatConstant) String() string   { return fmt.Sprintf("float64 %g", c.Value) }
func (c FloatConstant) Type() *types.Type { return types.Float64 }

// UnitConstant is the empty tuple immediate.
type UnitConstant struct{}

func (UnitConstant) isConstant()        {}
func (UnitConstant) String() string     { return "unit" }
func (UnitConstant) Type() *types.Type  { return types.Unit() }

// Use records one operand position of a user instruction.
type Use struct {
	User  InstructionID
	Index int
}

// Module is a compilation unit of IR. It owns all functions, blocks and
// instructions, and keeps the def-use map consistent with every
// mutation.
type Module struct {
	Name string

	functions   []*Function
	funcsByName map[string]FunctionID

	blocks []*Block

	// insts is the instruction arena; removed slots are nil.
	insts []*Instruction

	// uses maps register and parameter operands to their users, in
	// insertion order.
	uses map[Operand][]Use
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name:        name,
		funcsByName: make(map[string]FunctionID),
		uses:        make(map[Operand][]Use),
	}
}

// FunctionSpec declares a function to be created on first use.
type FunctionSpec struct {
	Name          string
	Site          source.Site
	Linkage       Linkage
	GenericParams []types.DeclID
	Inputs        []types.CallableParam
	Output        *types.Type
	Subscript     bool
}

// DeclareFunction returns the function named by spec, creating it on
// first demand.
func (m *Module) DeclareFunction(spec FunctionSpec) FunctionID {
	if id, ok := m.funcsByName[spec.Name]; ok {
		return id
	}
	id := FunctionID(len(m.functions))
	m.functions = append(m.functions, &Function{
		ID:            id,
		Name:          spec.Name,
		Site:          spec.Site,
		Linkage:       spec.Linkage,
		GenericParams: spec.GenericParams,
		Inputs:        spec.Inputs,
		Output:        spec.Output,
		Subscript:     spec.Subscript,
	})
	m.funcsByName[spec.Name] = id
	return id
}

// Function returns a function by identity.
func (m *Module) Function(id FunctionID) *Function { return m.functions[id] }

// FunctionNamed returns a function by name.
func (m *Module) FunctionNamed(name string) (FunctionID, bool) {
	id, ok := m.funcsByName[name]
	return id, ok
}

// Functions returns the function identities in creation order.
func (m *Module) Functions() []FunctionID {
	out := make([]FunctionID, len(m.functions))
	for i := range m.functions {
		out[i] = FunctionID(i)
	}
	return out
}

// Block returns a block by identity.
func (m *Module) Block(id BlockID) *Block { return m.blocks[id] }

// Instruction returns an instruction by identity, or nil when removed.
func (m *Module) Instruction(id InstructionID) *Instruction { return m.insts[id] }

// AppendBlock adds a block to a function. The entry block of a
// non-subscript function carries the function inputs plus a trailing
// return-storage parameter.
func (m *Module) AppendBlock(f FunctionID, scope types.ScopeID, params []*types.Type) BlockID {
	id := BlockID(len(m.blocks))
	b := &Block{ID: id, Function: f, Scope: scope, Params: params}
	m.blocks = append(m.blocks, b)
	m.functions[f].Blocks = append(m.functions[f].Blocks, id)
	return id
}

// AppendEntry adds the entry block of f with the parameter layout the
// calling convention requires.
func (m *Module) AppendEntry(f FunctionID, scope types.ScopeID) BlockID {
	fn := m.functions[f]
	params := make([]*types.Type, 0, len(fn.Inputs)+1)
	for _, in := range fn.Inputs {
		params = append(params, in.Type)
	}
	if !fn.Subscript {
		params = append(params, types.NewRemote(types.AccessSet, fn.Output))
	}
	return m.AppendBlock(f, scope, params)
}

// TypeOf returns the type of an operand.
func (m *Module) TypeOf(o Operand) *types.Type {
	switch o.Kind {
	case OperandRegister:
		return m.insts[o.Instruction].Result
	case OperandParameter:
		return m.blocks[o.Block].Params[o.Index]
	case OperandConstant:
		return o.Constant.Type()
	default:
		return nil
	}
}

// Uses returns the users of an operand, in insertion order.
func (m *Module) Uses(o Operand) []Use { return m.uses[o] }
