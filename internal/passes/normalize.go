package passes

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
	"github.com/vela-lang/vela/internal/types"
)

// objectState tracks the initialization state of a storage slot at a
// program point.
type objectState int

const (
	stateUnknown objectState = iota
	stateUninitialized
	stateInitialized
	stateMoved
	statePartial // initialized on some paths only
)

func (s objectState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateMoved:
		return "moved"
	case statePartial:
		return "partially initialized"
	default:
		return "unknown"
	}
}

func meetStates(a, b objectState) objectState {
	switch {
	case a == stateUnknown:
		return b
	case b == stateUnknown:
		return a
	case a == b:
		return a
	default:
		return statePartial
	}
}

type stateMap map[ir.Operand]objectState

func (m stateMap) clone() stateMap {
	out := make(stateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m stateMap) meet(o stateMap) stateMap {
	out := m.clone()
	for k, v := range o {
		out[k] = meetStates(out[k], v)
	}
	for k := range m {
		if _, ok := o[k]; !ok {
			out[k] = meetStates(m[k], stateUninitialized)
		}
	}
	return out
}

func (m stateMap) equal(o stateMap) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		if o[k] != v {
			return false
		}
	}
	return true
}

// NormalizeObjectStates tracks the initialization state of each storage
// slot through the CFG, legalizes move pseudo-instructions into
// initialize or assign, and diagnoses reads from uninitialized or moved
// storage.
type NormalizeObjectStates struct{}

func (NormalizeObjectStates) Name() string { return "normalize-object-states" }

func (NormalizeObjectStates) Run(m *ir.Module, f ir.FunctionID, sink *diagnostic.Sink) {
	fn := m.Function(f)
	entryStates := make(map[ir.BlockID]stateMap)

	entry, ok := fn.Entry()
	if !ok {
		return
	}
	entryStates[entry] = initialStates(m, fn, entry)

	// Forward dataflow to a fixed point; diagnostics and legalization
	// happen in a final deterministic walk.
	for changed := true; changed; {
		changed = false
		for _, b := range fn.Blocks {
			in, ok := entryStates[b]
			if !ok {
				if b == entry {
					in = initialStates(m, fn, entry)
				} else {
					continue
				}
			}
			out := transferBlock(m, b, in.clone(), nil, nil)
			for _, s := range successorsOf(m, b) {
				merged := out
				if prev, ok := entryStates[s]; ok {
					merged = prev.meet(out)
					if merged.equal(prev) {
						continue
					}
				}
				entryStates[s] = merged
				changed = true
			}
		}
	}

	for _, b := range fn.Blocks {
		in, ok := entryStates[b]
		if !ok {
			in = make(stateMap)
		}
		transferBlock(m, b, in.clone(), sink, m)
	}
}

// initialStates seeds the entry block: let, inout and sink inputs arrive
// initialized; set inputs arrive uninitialized.
func initialStates(m *ir.Module, fn *ir.Function, entry ir.BlockID) stateMap {
	out := make(stateMap)
	for i, in := range fn.Inputs {
		st := stateInitialized
		if p := in.Type.Parameter(); p != nil && p.Access == types.AccessSet {
			st = stateUninitialized
		}
		out[ir.Param(entry, i)] = st
	}
	if !fn.Subscript {
		// The trailing return storage starts uninitialized.
		out[ir.Param(entry, len(fn.Inputs))] = stateUninitialized
	}
	return out
}

// transferBlock walks a block updating states. When legalize is non-nil
// move pseudo-instructions are rewritten and misuses diagnosed.
func transferBlock(m *ir.Module, b ir.BlockID, states stateMap, sink *diagnostic.Sink, legalize *ir.Module) stateMap {
	for _, id := range append([]ir.InstructionID(nil), m.Block(b).Instructions...) {
		inst := m.Instruction(id)
		if inst == nil {
			continue
		}
		switch inst.Op.(type) {
		case ir.AllocStack:
			states[ir.Register(id)] = stateUninitialized

		case ir.Initialize:
			states[slotOf(m, inst.Operands[0])] = stateInitialized

		case ir.Assign:
			states[slotOf(m, inst.Operands[0])] = stateInitialized

		case ir.Move:
			slot := slotOf(m, inst.Operands[0])
			src := slotOf(m, inst.Operands[1])
			if sink != nil {
				switch states[src] {
				case stateMoved:
					sink.Report(diagnostic.Error(inst.Site, "use of value after move"))
				case stateInitialized:
				default:
					sink.Report(diagnostic.Error(inst.Site, "use of uninitialized value"))
				}
			}
			if legalize != nil {
				if states[slot] == stateInitialized {
					legalize.ReplaceInstruction(id, ir.Assign{}, inst.Operands)
				} else {
					legalize.ReplaceInstruction(id, ir.Initialize{}, inst.Operands)
				}
			}
			states[slot] = stateInitialized
			states[src] = stateMoved

		case ir.Load:
			slot := slotOf(m, inst.Operands[0])
			if sink != nil {
				switch states[slot] {
				case stateMoved:
					sink.Report(diagnostic.Error(inst.Site, "use of value after move"))
				case stateInitialized:
				default:
					sink.Report(diagnostic.Error(inst.Site, "use of uninitialized value"))
				}
			}

		case ir.Deinit:
			slot := slotOf(m, inst.Operands[0])
			if sink != nil && states[slot] != stateInitialized && states[slot] != statePartial {
				sink.Report(diagnostic.Error(inst.Site, "deinitializing %s storage", states[slot]))
			}
			states[slot] = stateUninitialized
		}
	}
	return states
}

// slotOf resolves an address operand to the storage slot it denotes.
func slotOf(m *ir.Module, o ir.Operand) ir.Operand {
	ps := m.Provenances(o)
	if len(ps) > 0 {
		return ps[0]
	}
	return o
}
