package passes

import (
	"sort"

	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
	"github.com/vela-lang/vela/internal/types"
)

// openAccess is an access scope not yet closed at a program point.
type openAccess struct {
	access ir.InstructionID
	effect types.AccessEffect
	roots  []ir.Operand
}

// EnforceExclusivity rejects overlapping accesses to one provenance
// when more than one is mutable, or when a mutable access overlaps any
// other access.
type EnforceExclusivity struct{}

func (EnforceExclusivity) Name() string { return "enforce-exclusivity" }

func (EnforceExclusivity) Run(m *ir.Module, f ir.FunctionID, sink *diagnostic.Sink) {
	fn := m.Function(f)
	entrySets := make(map[ir.BlockID][]openAccess)
	entry, ok := fn.Entry()
	if !ok {
		return
	}
	entrySets[entry] = nil
	reported := make(map[[2]ir.InstructionID]bool)

	// Forward dataflow: accesses still open at a block's tail flow into
	// its successors.
	for changed := true; changed; {
		changed = false
		for _, b := range fn.Blocks {
			in, seeded := entrySets[b]
			if !seeded && b != entry {
				continue
			}
			out := walkExclusivity(m, b, in, nil, nil)
			for _, s := range successorsOf(m, b) {
				merged := unionOpen(entrySets[s], out)
				if !sameOpen(entrySets[s], merged) || !hasKey(entrySets, s) {
					entrySets[s] = merged
					changed = true
				}
			}
		}
	}

	for _, b := range fn.Blocks {
		walkExclusivity(m, b, entrySets[b], sink, reported)
	}
}

func hasKey(m map[ir.BlockID][]openAccess, k ir.BlockID) bool {
	_, ok := m[k]
	return ok
}

// walkExclusivity interprets a block, reporting overlaps when sink is
// non-nil, and returns the accesses still open at the tail.
func walkExclusivity(m *ir.Module, b ir.BlockID, in []openAccess, sink *diagnostic.Sink, reported map[[2]ir.InstructionID]bool) []openAccess {
	open := append([]openAccess(nil), in...)
	for _, id := range m.Block(b).Instructions {
		inst := m.Instruction(id)
		if inst == nil {
			continue
		}
		switch op := inst.Op.(type) {
		case ir.Access:
			effect, _ := op.Capabilities.Weakest()
			oa := openAccess{access: id, effect: effect, roots: m.Provenances(inst.Operands[0])}
			if sink != nil {
				for _, other := range open {
					if !rootsOverlap(oa.roots, other.roots) {
						continue
					}
					if !oa.effect.IsMutating() && !other.effect.IsMutating() {
						continue
					}
					key := [2]ir.InstructionID{other.access, id}
					if reported[key] {
						continue
					}
					reported[key] = true
					d := diagnostic.Error(inst.Site, "exclusivity violation: overlapping '%s' access", oa.effect)
					d = d.WithNote(diagnostic.Note(m.Instruction(other.access).Site,
						"conflicting '%s' access is here", other.effect))
					sink.Report(d)
				}
			}
			open = append(open, oa)

		case ir.EndAccess:
			target := inst.Operands[0]
			if target.Kind == ir.OperandRegister {
				for i, oa := range open {
					if oa.access == target.Instruction {
						open = append(open[:i], open[i+1:]...)
						break
					}
				}
			}
		}
	}
	return open
}

func rootsOverlap(a, b []ir.Operand) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// unionOpen merges open-access sets deterministically.
func unionOpen(a, b []openAccess) []openAccess {
	byID := make(map[ir.InstructionID]openAccess, len(a)+len(b))
	for _, oa := range a {
		byID[oa.access] = oa
	}
	for _, oa := range b {
		byID[oa.access] = oa
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	out := make([]openAccess, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[ir.InstructionID(id)])
	}
	return out
}

func sameOpen(a, b []openAccess) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].access != b[i].access {
			return false
		}
	}
	return true
}
