package types

import "sort"

// Canonical returns the unique representative of t's equivalence class:
// aliases are expanded, union members are flattened, sorted and
// deduplicated, and bound-generic argument maps are key-ordered.
// Self-referential aliases (a type mentioning itself through generic
// arguments) are treated as fixed points rather than errors.
func Canonical(t *Type) *Type {
	return canonical(t, nil)
}

func canonical(t *Type, opened map[DeclID]bool) *Type {
	if t.Flags.Has(FlagCanonical) {
		return t
	}

	if t.Kind == KindAlias {
		d := t.Data.(*AliasType)
		if opened[d.Decl] {
			// Cycle through generic arguments; the expansion already in
			// progress is the fixed point.
			return d.Aliasee
		}
		if opened == nil {
			opened = make(map[DeclID]bool)
		}
		opened[d.Decl] = true
		r := canonical(d.Aliasee, opened)
		delete(opened, d.Decl)
		return r
	}

	// Canonicalize children first.
	t = t.transformChildren(func(c *Type) (*Type, TransformAction) {
		return canonical(c, opened), StepOver
	})

	switch t.Kind {
	case KindUnion:
		d := t.Data.(*UnionType)
		members := flattenUnion(d.Members)
		members = dedupeTypes(members)
		sort.SliceStable(members, func(i, j int) bool {
			return Compare(members[i], members[j]) < 0
		})
		if len(members) == 1 {
			return members[0]
		}
		u := NewUnion(members)
		u.Flags |= FlagCanonical
		return u

	case KindBoundGeneric:
		d := t.Data.(*BoundGenericType)
		args := append([]TypeArgument(nil), d.Arguments...)
		sort.SliceStable(args, func(i, j int) bool { return args[i].Key < args[j].Key })
		g := NewBoundGeneric(d.Base, args)
		g.Flags |= FlagCanonical
		return g

	default:
		t.Flags |= FlagCanonical
		return t
	}
}

// isUnionNormal reports whether members are already flat, deduplicated and
// ordered.
func isUnionNormal(members []*Type) bool {
	for i, m := range members {
		if m.Kind == KindUnion && len(m.Data.(*UnionType).Members) > 0 {
			return false
		}
		if i > 0 && Compare(members[i-1], m) >= 0 {
			return false
		}
	}
	return true
}

func isArgumentsSorted(args []TypeArgument) bool {
	for i := 1; i < len(args); i++ {
		if args[i-1].Key >= args[i].Key {
			return false
		}
	}
	return true
}

func flattenUnion(members []*Type) []*Type {
	out := make([]*Type, 0, len(members))
	for _, m := range members {
		if u := m.Union(); u != nil {
			out = append(out, flattenUnion(u.Members)...)
		} else {
			out = append(out, m)
		}
	}
	return out
}

func dedupeTypes(ts []*Type) []*Type {
	out := ts[:0]
outer:
	for _, t := range ts {
		for _, kept := range out {
			if Equal(kept, t) {
				continue outer
			}
		}
		out = append(out, t)
	}
	return out
}

// Compare imposes a deterministic total order on canonical terms, used to
// order the members of unordered constructors.
func Compare(a, b *Type) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	switch a.Kind {
	case KindVariable:
		return cmpUint64(uint64(a.Data.(*VariableType).ID), uint64(b.Data.(*VariableType).ID))
	case KindGenericParam:
		return cmpUint64(uint64(a.Data.(*GenericParamType).Decl), uint64(b.Data.(*GenericParamType).Decl))
	case KindProduct:
		return cmpUint64(uint64(a.Data.(*ProductType).Decl), uint64(b.Data.(*ProductType).Decl))
	case KindBuiltin:
		return int(a.Data.(*BuiltinType).Which) - int(b.Data.(*BuiltinType).Which)
	case KindError:
		return 0
	default:
		// Structured kinds order by rendering; stable and cheap enough for
		// the small unions that occur in practice.
		sa, sb := a.String(), b.String()
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
