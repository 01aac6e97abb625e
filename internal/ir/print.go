package ir

import (
	"fmt"
	"strings"
)

// String serializes the module as a function list. Output is
// deterministic across runs.
func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name)
	for _, f := range m.Functions() {
		b.WriteString(m.functionString(f))
	}
	return b.String()
}

func (m *Module) functionString(id FunctionID) string {
	f := m.functions[id]
	var b strings.Builder
	kind := "fun"
	if f.Subscript {
		kind = "subscript"
	}
	fmt.Fprintf(&b, "%s @%s(", kind, f.Name)
	for i, in := range f.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		label := in.Label
		if label == "" {
			label = "_"
		}
		fmt.Fprintf(&b, "%s: %s", label, in.Type)
	}
	fmt.Fprintf(&b, ") -> %s {\n", f.Output)
	for _, bb := range f.Blocks {
		b.WriteString(m.blockString(bb))
	}
	b.WriteString("}\n")
	return b.String()
}

func (m *Module) blockString(id BlockID) string {
	bb := m.blocks[id]
	var b strings.Builder
	fmt.Fprintf(&b, "b%d(", id)
	for i, p := range bb.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%%b%d.%d: %s", id, i, p)
	}
	b.WriteString("):\n")
	for _, i := range bb.Instructions {
		inst := m.insts[i]
		b.WriteString("  ")
		if inst.Result != nil {
			fmt.Fprintf(&b, "%%%d = ", i)
		}
		b.WriteString(inst.Op.Mnemonic())
		for j, o := range inst.Operands {
			if j == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString(", ")
			}
			b.WriteString(o.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
