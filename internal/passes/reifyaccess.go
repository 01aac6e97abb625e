package passes

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
	"github.com/vela-lang/vela/internal/types"
)

// ReifyAccesses lowers abstract access requests to concrete capability
// requests, chosen from the provenance's sink-ness and the downstream
// usage of the accessed value.
type ReifyAccesses struct{}

func (ReifyAccesses) Name() string { return "reify-accesses" }

func (ReifyAccesses) Run(m *ir.Module, f ir.FunctionID, sink *diagnostic.Sink) {
	for _, b := range m.Function(f).Blocks {
		for _, id := range append([]ir.InstructionID(nil), m.Block(b).Instructions...) {
			inst := m.Instruction(id)
			if inst == nil {
				continue
			}
			op, ok := inst.Op.(ir.Access)
			if !ok || op.Capabilities.Len() <= 1 {
				continue
			}
			concrete := chooseCapability(m, f, inst, op.Capabilities)
			if concrete == types.AccessSink && !m.IsSink(inst.Operands[0], f) {
				sink.Report(diagnostic.Error(inst.Site,
					"cannot consume a value not owned by the function"))
				concrete = types.AccessInout
			}
			m.ReplaceInstruction(id, ir.Access{Capabilities: types.Singleton(concrete)}, inst.Operands)
		}
	}
}

// chooseCapability inspects the users of an access to find the weakest
// capability satisfying all of them.
func chooseCapability(m *ir.Module, f ir.FunctionID, access *ir.Instruction, requested types.AccessEffectSet) types.AccessEffect {
	reg := ir.Register(access.ID)
	needsSink, needsInout, needsSet := false, false, false
	for _, u := range m.Uses(reg) {
		user := m.Instruction(u.User)
		if user == nil {
			continue
		}
		switch user.Op.(type) {
		case ir.EndAccess:
		case ir.Load:
		case ir.Initialize:
			if u.Index == 0 {
				needsSet = true
			}
		case ir.Assign:
			if u.Index == 0 {
				needsInout = true
			}
		case ir.Move:
			if u.Index == 0 {
				needsInout = true
			} else {
				needsSink = true
			}
		case ir.Deinit:
			needsSink = true
		}
	}

	var required types.AccessEffect
	switch {
	case needsSink:
		required = types.AccessSink
	case needsInout:
		required = types.AccessInout
	case needsSet:
		required = types.AccessSet
	default:
		required = types.AccessLet
	}
	if requested.Contains(required) {
		return required
	}
	// The request did not anticipate this usage; take the weakest
	// requested capability that still covers it.
	for _, a := range [...]types.AccessEffect{types.AccessLet, types.AccessInout, types.AccessSet, types.AccessSink, types.AccessYielded} {
		if requested.Contains(a) && rank(a) >= rank(required) {
			return a
		}
	}
	return required
}

func rank(a types.AccessEffect) int {
	switch a {
	case types.AccessLet:
		return 0
	case types.AccessInout, types.AccessSet:
		return 1
	default:
		return 2
	}
}
