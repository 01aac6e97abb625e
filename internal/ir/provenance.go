package ir

import "github.com/vela-lang/vela/internal/types"

// Provenances returns the static provenance of an address operand: the
// set of original operands from which it derives. Addressing
// instructions recurse into the originating address; everything else is
// its own provenance.
func (m *Module) Provenances(o Operand) []Operand {
	seen := make(map[Operand]bool)
	var out []Operand
	var visit func(Operand)
	visit = func(o Operand) {
		if seen[o] {
			return
		}
		seen[o] = true
		if o.Kind == OperandRegister {
			inst := m.insts[o.Instruction]
			if inst != nil && IsAddressing(inst.Op) && len(inst.Operands) > 0 {
				visit(inst.Operands[0])
				return
			}
		}
		out = append(out, o)
	}
	visit(o)
	return out
}

// IsSink reports whether an operand may be consumed in function f: every
// provenance is either a slot the function owns or an input passed with
// the sink convention.
func (m *Module) IsSink(o Operand, f FunctionID) bool {
	for _, p := range m.Provenances(o) {
		switch p.Kind {
		case OperandRegister:
			inst := m.insts[p.Instruction]
			if inst == nil {
				return false
			}
			if _, ok := inst.Op.(AllocStack); !ok {
				return false
			}
		case OperandParameter:
			fn := m.functions[f]
			entry, ok := fn.Entry()
			if !ok || p.Block != entry || p.Index >= len(fn.Inputs) {
				return false
			}
			pt := fn.Inputs[p.Index].Type.Parameter()
			if pt == nil || pt.Access != types.AccessSink {
				return false
			}
		case OperandConstant:
			return false
		}
	}
	return true
}
