// Package synth generates the default deinitializer and move-operator
// implementations demanded by conformances, lowering them through the
// same builder the normal emitter uses.
package synth

import (
	"fmt"

	"github.com/vela-lang/vela/internal/ir"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// Operator identifies a synthesizable implementation.
type Operator int

const (
	// OperatorDeinit destroys a value element-wise.
	OperatorDeinit Operator = iota
	// OperatorMoveInit moves a value into uninitialized storage.
	OperatorMoveInit
	// OperatorMoveAssign moves a value into initialized storage.
	OperatorMoveAssign
)

func (o Operator) String() string {
	switch o {
	case OperatorDeinit:
		return "deinit"
	case OperatorMoveInit:
		return "take_init"
	case OperatorMoveAssign:
		return "take_assign"
	default:
		return "op?"
	}
}

// Synthesizer creates synthetic implementations on first demand and
// memoizes them per (type, operator). It holds no state beyond the
// module it extends.
type Synthesizer struct {
	module *ir.Module
	memo   map[string]ir.FunctionID
}

// New creates a synthesizer extending m.
func New(m *ir.Module) *Synthesizer {
	return &Synthesizer{module: m, memo: make(map[string]ir.FunctionID)}
}

// Demand returns the implementation of op for t, generating it on first
// use.
func (s *Synthesizer) Demand(op Operator, t *types.Type) ir.FunctionID {
	t = types.Canonical(t)
	name := fmt.Sprintf("$%s<%s>", op, t)
	if id, ok := s.memo[name]; ok {
		return id
	}

	var inputs []types.CallableParam
	switch op {
	case OperatorDeinit:
		inputs = []types.CallableParam{{Label: "self", Type: types.NewParameter(types.AccessSink, t)}}
	default:
		selfAccess := types.AccessSet
		if op == OperatorMoveAssign {
			selfAccess = types.AccessInout
		}
		inputs = []types.CallableParam{
			{Label: "self", Type: types.NewParameter(selfAccess, t)},
			{Label: "other", Type: types.NewParameter(types.AccessSink, t)},
		}
	}

	id := s.module.DeclareFunction(ir.FunctionSpec{
		Name:    name,
		Linkage: ir.LinkageModule,
		Inputs:  inputs,
		Output:  types.Unit(),
	})
	s.memo[name] = id

	entry := s.module.AppendEntry(id, 0)
	switch op {
	case OperatorDeinit:
		s.emitDeinit(entry, ir.Param(entry, 0), t)
	case OperatorMoveInit, OperatorMoveAssign:
		s.emitMove(entry, ir.Param(entry, 0), ir.Param(entry, 1), t, op)
	}
	s.module.Append(entry, ir.Return{}, nil, nil, source.Site{})
	return id
}

// emitDeinit destroys self element-wise. Built-in contents have no
// deinitializer; record types delegate to their own.
func (s *Synthesizer) emitDeinit(b ir.BlockID, self ir.Operand, t *types.Type) {
	switch {
	case t.Kind == types.KindBuiltin:
		// Nothing to destroy.
	case t.Tuple() != nil:
		for i, e := range t.Tuple().Elements {
			view := s.module.Append(b, ir.SubfieldView{Field: i}, []ir.Operand{self},
				types.NewRemote(types.AccessSink, e.Type), source.Site{})
			s.emitDeinit(b, ir.Register(view), e.Type)
		}
	default:
		s.module.Append(b, ir.Deinit{}, []ir.Operand{self}, nil, source.Site{})
	}
}

// emitMove transfers other into self, consuming other's storage. The
// move pseudo-instruction is legalized by object-state normalization
// according to op.
func (s *Synthesizer) emitMove(b ir.BlockID, self, other ir.Operand, t *types.Type, op Operator) {
	if op == OperatorMoveAssign {
		s.emitDeinit(b, self, t)
	}
	s.module.Append(b, ir.Move{}, []ir.Operand{self, other}, nil, source.Site{})
}
