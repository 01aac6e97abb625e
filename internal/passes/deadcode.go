package passes

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
)

// DeadCode removes instructions whose results have no uses and whose
// operations are pure, and blocks unreachable from the entry.
type DeadCode struct{}

func (DeadCode) Name() string { return "dead-code" }

func (DeadCode) Run(m *ir.Module, f ir.FunctionID, sink *diagnostic.Sink) {
	reach := reachableBlocks(m, f)
	for _, b := range append([]ir.BlockID(nil), m.Function(f).Blocks...) {
		if !reach[b] {
			m.RemoveBlock(b)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range m.Function(f).Blocks {
			insts := append([]ir.InstructionID(nil), m.Block(b).Instructions...)
			for i := len(insts) - 1; i >= 0; i-- {
				inst := m.Instruction(insts[i])
				if inst == nil || inst.Result == nil {
					continue
				}
				if !ir.IsPure(inst.Op) {
					continue
				}
				if len(m.Uses(ir.Register(inst.ID))) > 0 {
					continue
				}
				m.RemoveInstruction(inst.ID)
				changed = true
			}
		}
	}
}
