package ir

import (
	"fmt"

	"github.com/vela-lang/vela/internal/types"
)

// Operation is implemented by all IR operations.
type Operation interface {
	Mnemonic() string
	isOperation()
}

// AllocStack allocates an uninitialized stack slot and yields its
// address.
type AllocStack struct {
	Allocated *types.Type
}

// Access requests a capability on the address given as operand 0. A
// request with more than one capability is abstract and must be
// reified to a concrete one before lowering.
type Access struct {
	Capabilities types.AccessEffectSet
}

// EndAccess closes the access scope opened by operand 0.
type EndAccess struct{}

// Move is the pseudo-instruction for destructive moves: operand 0 is the
// target address, operand 1 the moved-from address. Object-state
// normalization legalizes it to Initialize or Assign and marks the
// source storage moved.
type Move struct{}

// Initialize stores operand 1 (a value, or a moved-from address) into
// the uninitialized slot at operand 0.
type Initialize struct{}

// Assign replaces the initialized contents of operand 0 with operand 1
// (a value, or a moved-from address).
type Assign struct{}

// Load reads the value at the address given as operand 0.
type Load struct{}

// CallFn applies a named function to its operands.
type CallFn struct {
	Callee string
}

// Project applies a subscript, yielding a borrowed projection of the
// address given as operand 0.
type Project struct {
	Callee string
}

// ProjectBundle applies a subscript bundle before its variant is
// selected.
type ProjectBundle struct {
	Bundle string
}

// SubfieldView yields the address of a stored part of operand 0.
type SubfieldView struct {
	Field int
}

// AdvanceByBytes offsets the address given as operand 0.
type AdvanceByBytes struct {
	Bytes int
}

// WrapExistentialAddr wraps the address of operand 0 into an existential
// container address.
type WrapExistentialAddr struct{}

// Deinit destroys the contents of the slot at operand 0, leaving it
// uninitialized.
type Deinit struct{}

// Return exits the current function.
type Return struct{}

// Branch jumps unconditionally.
type Branch struct {
	Target BlockID
}

// CondBranch jumps depending on operand 0.
type CondBranch struct {
	Then BlockID
	Else BlockID
}

func (AllocStack) isOperation()          {}
func (Access) isOperation()              {}
func (EndAccess) isOperation()           {}
func (Move) isOperation()                {}
func (Initialize) isOperation()          {}
func (Assign) isOperation()              {}
func (Load) isOperation()                {}
func (CallFn) isOperation()              {}
func (Project) isOperation()             {}
func (ProjectBundle) isOperation()       {}
func (SubfieldView) isOperation()        {}
func (AdvanceByBytes) isOperation()      {}
func (WrapExistentialAddr) isOperation() {}
func (Deinit) isOperation()              {}
func (Return) isOperation()              {}
func (Branch) isOperation()              {}
func (CondBranch) isOperation()          {}

func (o AllocStack) Mnemonic() string     { return fmt.Sprintf("alloc_stack %s", o.Allocated) }
func (o Access) Mnemonic() string         { return fmt.Sprintf("access %s", o.Capabilities) }
func (EndAccess) Mnemonic() string        { return "end_access" }
func (Move) Mnemonic() string             { return "move" }
func (Initialize) Mnemonic() string       { return "initialize" }
func (Assign) Mnemonic() string           { return "assign" }
func (Load) Mnemonic() string             { return "load" }
func (o CallFn) Mnemonic() string         { return fmt.Sprintf("call @%s", o.Callee) }
func (o Project) Mnemonic() string        { return fmt.Sprintf("project @%s", o.Callee) }
func (o ProjectBundle) Mnemonic() string  { return fmt.Sprintf("project_bundle @%s", o.Bundle) }
func (o SubfieldView) Mnemonic() string   { return fmt.Sprintf("subfield_view %d", o.Field) }
func (o AdvanceByBytes) Mnemonic() string { return fmt.Sprintf("advance_by_bytes %d", o.Bytes) }
func (WrapExistentialAddr) Mnemonic() string { return "wrap_existential_addr" }
func (Deinit) Mnemonic() string           { return "deinit" }
func (Return) Mnemonic() string           { return "return" }
func (o Branch) Mnemonic() string         { return fmt.Sprintf("branch b%d", o.Target) }
func (o CondBranch) Mnemonic() string     { return fmt.Sprintf("cond_branch b%d, b%d", o.Then, o.Else) }

// IsTerminator reports whether op must sit at a block tail.
func IsTerminator(op Operation) bool {
	switch op.(type) {
	case Return, Branch, CondBranch:
		return true
	default:
		return false
	}
}

// IsPure reports whether op has no effect beyond producing its result,
// making an unused result removable.
func IsPure(op Operation) bool {
	switch op.(type) {
	case AllocStack, Load, SubfieldView, AdvanceByBytes, WrapExistentialAddr:
		return true
	default:
		return false
	}
}

// IsAddressing reports whether op derives an address from the address
// given as its first operand, for provenance computation.
func IsAddressing(op Operation) bool {
	switch op.(type) {
	case Access, Project, ProjectBundle, SubfieldView, AdvanceByBytes, WrapExistentialAddr:
		return true
	default:
		return false
	}
}

// Successors returns the blocks a terminator may transfer to.
func Successors(op Operation) []BlockID {
	switch t := op.(type) {
	case Branch:
		return []BlockID{t.Target}
	case CondBranch:
		return []BlockID{t.Then, t.Else}
	default:
		return nil
	}
}
