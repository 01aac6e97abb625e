package passes

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
)

// CloseBorrows inserts a matching end_access for every access scope
// left open, honoring the block topology: the scope closes after the
// last use on every path.
type CloseBorrows struct{}

func (CloseBorrows) Name() string { return "close-borrows" }

func (CloseBorrows) Run(m *ir.Module, f ir.FunctionID, sink *diagnostic.Sink) {
	for _, b := range m.Function(f).Blocks {
		for _, id := range append([]ir.InstructionID(nil), m.Block(b).Instructions...) {
			inst := m.Instruction(id)
			if inst == nil {
				continue
			}
			if _, ok := inst.Op.(ir.Access); !ok {
				continue
			}
			closeAccess(m, f, inst)
		}
	}
}

func closeAccess(m *ir.Module, f ir.FunctionID, access *ir.Instruction) {
	reg := ir.Register(access.ID)
	usesByBlock := make(map[ir.BlockID][]ir.Use)
	for _, u := range m.Uses(reg) {
		user := m.Instruction(u.User)
		if _, ok := user.Op.(ir.EndAccess); ok {
			// Already closed on this path.
			return
		}
		usesByBlock[user.Block] = append(usesByBlock[user.Block], u)
	}

	if len(usesByBlock) == 0 {
		m.InsertAfter(access.ID, ir.EndAccess{}, []ir.Operand{reg}, nil, access.Site)
		return
	}

	// Close in every use block with no downstream use block; the access
	// ends where its borrow can no longer flow.
	for b, uses := range usesByBlock {
		if hasDownstreamUse(m, b, usesByBlock) {
			continue
		}
		last := lastUser(m, b, uses)
		if ir.IsTerminator(m.Instruction(last).Op) {
			m.InsertBefore(last, ir.EndAccess{}, []ir.Operand{reg}, nil, access.Site)
		} else {
			m.InsertAfter(last, ir.EndAccess{}, []ir.Operand{reg}, nil, access.Site)
		}
	}
}

// hasDownstreamUse reports whether any block reachable from b (strictly
// below it) also uses the access.
func hasDownstreamUse(m *ir.Module, b ir.BlockID, usesByBlock map[ir.BlockID][]ir.Use) bool {
	seen := map[ir.BlockID]bool{b: true}
	work := successorsOf(m, b)
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		if _, ok := usesByBlock[n]; ok {
			return true
		}
		work = append(work, successorsOf(m, n)...)
	}
	return false
}

// lastUser returns the latest user of the access within a block.
func lastUser(m *ir.Module, b ir.BlockID, uses []ir.Use) ir.InstructionID {
	users := make(map[ir.InstructionID]bool, len(uses))
	for _, u := range uses {
		users[u.User] = true
	}
	insts := m.Block(b).Instructions
	for i := len(insts) - 1; i >= 0; i-- {
		if users[insts[i]] {
			return insts[i]
		}
	}
	return uses[len(uses)-1].User
}
