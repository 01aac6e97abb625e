// Package passes implements the mandatory IR transformations required
// for semantic correctness: dead-code removal, access reification,
// borrow closing, object-state normalization, and exclusivity
// enforcement.
package passes

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
)

// Pass transforms one function, reporting diagnostics through the
// shared sink.
type Pass interface {
	Name() string
	Run(m *ir.Module, f ir.FunctionID, sink *diagnostic.Sink)
}

// Mandatory returns the mandatory passes in their required order.
func Mandatory() []Pass {
	return []Pass{
		DeadCode{},
		ReifyAccesses{},
		CloseBorrows{},
		NormalizeObjectStates{},
		EnforceExclusivity{},
	}
}

// RunMandatory applies the mandatory passes to every function of m.
func RunMandatory(m *ir.Module, sink *diagnostic.Sink) {
	for _, p := range Mandatory() {
		for _, f := range m.Functions() {
			p.Run(m, f, sink)
		}
	}
}

// reachableBlocks computes the blocks reachable from the entry.
func reachableBlocks(m *ir.Module, f ir.FunctionID) map[ir.BlockID]bool {
	fn := m.Function(f)
	out := make(map[ir.BlockID]bool)
	entry, ok := fn.Entry()
	if !ok {
		return out
	}
	work := []ir.BlockID{entry}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		if out[b] {
			continue
		}
		out[b] = true
		if t, ok := m.Terminator(b); ok {
			work = append(work, ir.Successors(t.Op)...)
		}
	}
	return out
}

// successorsOf returns the successors of a block, empty without a
// terminator.
func successorsOf(m *ir.Module, b ir.BlockID) []ir.BlockID {
	if t, ok := m.Terminator(b); ok {
		return ir.Successors(t.Op)
	}
	return nil
}

// predecessorsOf computes the predecessor map of a function.
func predecessorsOf(m *ir.Module, f ir.FunctionID) map[ir.BlockID][]ir.BlockID {
	out := make(map[ir.BlockID][]ir.BlockID)
	for _, b := range m.Function(f).Blocks {
		for _, s := range successorsOf(m, b) {
			out[s] = append(out[s], b)
		}
	}
	return out
}
