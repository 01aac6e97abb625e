package ir

import (
	"fmt"

	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// newInstruction allocates an instruction slot and records the uses of
// its operands. All insertion helpers go through it so the def-use map
// stays consistent.
func (m *Module) newInstruction(b BlockID, op Operation, operands []Operand, result *types.Type, site source.Site) InstructionID {
	id := InstructionID(len(m.insts))
	inst := &Instruction{ID: id, Block: b, Op: op, Operands: operands, Result: result, Site: site}
	m.insts = append(m.insts, inst)
	for i, o := range operands {
		m.recordUse(o, Use{User: id, Index: i})
	}
	return id
}

func (m *Module) recordUse(o Operand, u Use) {
	if o.Kind == OperandConstant {
		return
	}
	m.uses[o] = append(m.uses[o], u)
}

func (m *Module) eraseUse(o Operand, u Use) {
	if o.Kind == OperandConstant {
		return
	}
	us := m.uses[o]
	for i, e := range us {
		if e == u {
			m.uses[o] = append(us[:i], us[i+1:]...)
			return
		}
	}
}

// Append adds an instruction at the tail of a block.
func (m *Module) Append(b BlockID, op Operation, operands []Operand, result *types.Type, site source.Site) InstructionID {
	id := m.newInstruction(b, op, operands, result, site)
	m.blocks[b].Instructions = append(m.blocks[b].Instructions, id)
	return id
}

// Prepend adds an instruction at the head of a block.
func (m *Module) Prepend(b BlockID, op Operation, operands []Operand, result *types.Type, site source.Site) InstructionID {
	id := m.newInstruction(b, op, operands, result, site)
	m.blocks[b].Instructions = append([]InstructionID{id}, m.blocks[b].Instructions...)
	return id
}

// InsertBefore adds an instruction immediately before an anchor.
func (m *Module) InsertBefore(anchor InstructionID, op Operation, operands []Operand, result *types.Type, site source.Site) InstructionID {
	return m.insertAt(anchor, 0, op, operands, result, site)
}

// InsertAfter adds an instruction immediately after an anchor.
func (m *Module) InsertAfter(anchor InstructionID, op Operation, operands []Operand, result *types.Type, site source.Site) InstructionID {
	return m.insertAt(anchor, 1, op, operands, result, site)
}

func (m *Module) insertAt(anchor InstructionID, offset int, op Operation, operands []Operand, result *types.Type, site source.Site) InstructionID {
	a := m.insts[anchor]
	if a == nil {
		panic("insertion anchored to a removed instruction")
	}
	b := m.blocks[a.Block]
	at := -1
	for i, id := range b.Instructions {
		if id == anchor {
			at = i + offset
			break
		}
	}
	if at < 0 {
		panic("anchor not in its block")
	}
	id := m.newInstruction(a.Block, op, operands, result, site)
	b.Instructions = append(b.Instructions, 0)
	copy(b.Instructions[at+1:], b.Instructions[at:])
	b.Instructions[at] = id
	return id
}

// ReplaceInstruction substitutes the operation and operands of an
// instruction. The result type is preserved.
func (m *Module) ReplaceInstruction(id InstructionID, op Operation, operands []Operand) {
	inst := m.insts[id]
	if inst == nil {
		panic("replacing a removed instruction")
	}
	for i, o := range inst.Operands {
		m.eraseUse(o, Use{User: id, Index: i})
	}
	inst.Op = op
	inst.Operands = operands
	for i, o := range operands {
		m.recordUse(o, Use{User: id, Index: i})
	}
}

// ReplaceOperand rewrites one operand of an instruction, keeping the
// use chain consistent.
func (m *Module) ReplaceOperand(user InstructionID, index int, o Operand) {
	inst := m.insts[user]
	m.eraseUse(inst.Operands[index], Use{User: user, Index: index})
	inst.Operands[index] = o
	m.recordUse(o, Use{User: user, Index: index})
}

// ReplaceAllUses migrates every use of old to new within function f.
// The operands must have identical types.
func (m *Module) ReplaceAllUses(old, new Operand, f FunctionID) error {
	to, tn := m.TypeOf(old), m.TypeOf(new)
	if !types.Equal(to, tn) {
		return fmt.Errorf("cannot replace uses of %s: type '%s' differs from '%s'", old, to, tn)
	}
	for _, u := range append([]Use(nil), m.uses[old]...) {
		if m.blocks[m.insts[u.User].Block].Function != f {
			continue
		}
		m.ReplaceOperand(u.User, u.Index, new)
	}
	return nil
}

// RemoveInstruction removes an instruction whose result is unused.
func (m *Module) RemoveInstruction(id InstructionID) {
	inst := m.insts[id]
	if inst == nil {
		return
	}
	if len(m.uses[Register(id)]) > 0 {
		panic(fmt.Sprintf("removing %%%d while its result is in use", id))
	}
	for i, o := range inst.Operands {
		m.eraseUse(o, Use{User: id, Index: i})
	}
	b := m.blocks[inst.Block]
	for i, e := range b.Instructions {
		if e == id {
			b.Instructions = append(b.Instructions[:i], b.Instructions[i+1:]...)
			break
		}
	}
	delete(m.uses, Register(id))
	m.insts[id] = nil
}

// RemoveBlock removes a block and its instructions from its function.
func (m *Module) RemoveBlock(id BlockID) {
	b := m.blocks[id]
	// Instructions go tail-first so def-use constraints unwind.
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		inst := b.Instructions[i]
		for _, u := range append([]Use(nil), m.uses[Register(inst)]...) {
			// Uses from blocks being removed are dropped wholesale.
			m.eraseUse(Register(inst), u)
		}
		m.RemoveInstruction(inst)
	}
	f := m.functions[b.Function]
	for i, e := range f.Blocks {
		if e == id {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			break
		}
	}
}

// Terminator returns the terminator of a block, if present.
func (m *Module) Terminator(b BlockID) (*Instruction, bool) {
	insts := m.blocks[b].Instructions
	if len(insts) == 0 {
		return nil, false
	}
	last := m.insts[insts[len(insts)-1]]
	if last == nil || !IsTerminator(last.Op) {
		return nil, false
	}
	return last, true
}

// CheckWellFormed verifies the structural invariants of a function:
// terminators only at block tails and a complete entry parameter list.
func (m *Module) CheckWellFormed(f FunctionID) error {
	fn := m.functions[f]
	if entry, ok := fn.Entry(); ok {
		want := len(fn.Inputs)
		if !fn.Subscript {
			want++
		}
		if got := len(m.blocks[entry].Params); got != want {
			return fmt.Errorf("function %s: entry has %d parameters, expected %d", fn.Name, got, want)
		}
	}
	for _, b := range fn.Blocks {
		insts := m.blocks[b].Instructions
		for i, id := range insts {
			inst := m.insts[id]
			if inst == nil {
				return fmt.Errorf("function %s: removed instruction in block b%d", fn.Name, b)
			}
			if IsTerminator(inst.Op) && i != len(insts)-1 {
				return fmt.Errorf("function %s: terminator %s before block tail", fn.Name, inst.Op.Mnemonic())
			}
		}
	}
	return nil
}
