package types

// TransformAction tells Transform what to do at a subterm.
type TransformAction int

const (
	// StepInto keeps walking into the (possibly replaced) term's children.
	StepInto TransformAction = iota
	// StepOver accepts the replacement without visiting its children.
	StepOver
)

// Transformer rewrites a term, returning the replacement and whether the
// walk continues into it.
type Transformer func(t *Type) (*Type, TransformAction)

// Transform applies f structurally, rebuilding the term bottom-up. It is
// the single mechanism through which substitutions are applied; terms are
// never mutated in place.
func (t *Type) Transform(f Transformer) *Type {
	r, action := f(t)
	if action == StepOver {
		return r
	}
	return r.transformChildren(f)
}

// transformChildren rebuilds the children of t under f, preserving
// identity when nothing changed.
func (t *Type) transformChildren(f Transformer) *Type {
	switch t.Kind {
	case KindVariable, KindGenericParam, KindProduct, KindBuiltin, KindError:
		return t

	case KindTuple:
		d := t.Data.(*TupleType)
		changed := false
		elements := make([]TupleElement, len(d.Elements))
		for i, e := range d.Elements {
			n := e.Type.Transform(f)
			elements[i] = TupleElement{Label: e.Label, Type: n}
			changed = changed || n != e.Type
		}
		if !changed {
			return t
		}
		return NewTuple(elements)

	case KindUnion:
		d := t.Data.(*UnionType)
		changed := false
		members := make([]*Type, len(d.Members))
		for i, m := range d.Members {
			members[i] = m.Transform(f)
			changed = changed || members[i] != m
		}
		if !changed {
			return t
		}
		return NewUnion(members)

	case KindLambda:
		d := t.Data.(*LambdaType)
		inputs, inputsChanged := transformParams(d.Inputs, f)
		env := d.Environment.Transform(f)
		out := d.Output.Transform(f)
		if !inputsChanged && env == d.Environment && out == d.Output {
			return t
		}
		return NewLambda(inputs, env, out, d.Subscript)

	case KindMethod:
		d := t.Data.(*MethodType)
		inputs, inputsChanged := transformParams(d.Inputs, f)
		recv := d.Receiver.Transform(f)
		out := d.Output.Transform(f)
		if !inputsChanged && recv == d.Receiver && out == d.Output {
			return t
		}
		return NewMethod(recv, inputs, out, d.Capabilities)

	case KindParameter:
		d := t.Data.(*ParameterType)
		bare := d.Bare.Transform(f)
		if bare == d.Bare {
			return t
		}
		return NewParameter(d.Access, bare)

	case KindRemote:
		d := t.Data.(*RemoteType)
		bare := d.Bare.Transform(f)
		if bare == d.Bare {
			return t
		}
		return NewRemote(d.Access, bare)

	case KindMetatype:
		d := t.Data.(*MetatypeType)
		inst := d.Instance.Transform(f)
		if inst == d.Instance {
			return t
		}
		return NewMetatype(inst)

	case KindExistential:
		d := t.Data.(*ExistentialType)
		if d.Base == nil {
			return t
		}
		base := d.Base.Transform(f)
		if base == d.Base {
			return t
		}
		return NewBaseExistential(base)

	case KindBoundGeneric:
		d := t.Data.(*BoundGenericType)
		base := d.Base.Transform(f)
		changed := base != d.Base
		args := make([]TypeArgument, len(d.Arguments))
		for i, a := range d.Arguments {
			v := a.Value.Transform(f)
			args[i] = TypeArgument{Key: a.Key, Value: v}
			changed = changed || v != a.Value
		}
		if !changed {
			return t
		}
		return NewBoundGeneric(base, args)

	case KindAlias:
		d := t.Data.(*AliasType)
		aliasee := d.Aliasee.Transform(f)
		if aliasee == d.Aliasee {
			return t
		}
		return NewAlias(d.Decl, d.Name, aliasee)

	default:
		return t
	}
}

func transformParams(ps []CallableParam, f Transformer) ([]CallableParam, bool) {
	changed := false
	out := make([]CallableParam, len(ps))
	for i, p := range ps {
		n := p.Type.Transform(f)
		out[i] = CallableParam{Label: p.Label, Type: n}
		changed = changed || n != p.Type
	}
	return out, changed
}

// Walk visits every subterm of t until f returns false.
func (t *Type) Walk(f func(*Type) bool) {
	var visit func(*Type) bool
	visit = func(u *Type) bool {
		if !f(u) {
			return false
		}
		keep := true
		u.eachChild(func(c *Type) {
			if keep {
				keep = visit(c)
			}
		})
		return keep
	}
	visit(t)
}

// eachChild calls f on each immediate subterm.
func (t *Type) eachChild(f func(*Type)) {
	switch t.Kind {
	case KindTuple:
		for _, e := range t.Data.(*TupleType).Elements {
			f(e.Type)
		}
	case KindUnion:
		for _, m := range t.Data.(*UnionType).Members {
			f(m)
		}
	case KindLambda:
		d := t.Data.(*LambdaType)
		for _, p := range d.Inputs {
			f(p.Type)
		}
		f(d.Environment)
		f(d.Output)
	case KindMethod:
		d := t.Data.(*MethodType)
		f(d.Receiver)
		for _, p := range d.Inputs {
			f(p.Type)
		}
		f(d.Output)
	case KindParameter:
		f(t.Data.(*ParameterType).Bare)
	case KindRemote:
		f(t.Data.(*RemoteType).Bare)
	case KindMetatype:
		f(t.Data.(*MetatypeType).Instance)
	case KindExistential:
		if b := t.Data.(*ExistentialType).Base; b != nil {
			f(b)
		}
	case KindBoundGeneric:
		d := t.Data.(*BoundGenericType)
		f(d.Base)
		for _, a := range d.Arguments {
			f(a.Value)
		}
	case KindAlias:
		f(t.Data.(*AliasType).Aliasee)
	}
}

// FreeVariables collects the identities of every open variable in t.
func (t *Type) FreeVariables() []VariableID {
	if !t.Flags.Has(FlagHasVariable) {
		return nil
	}
	seen := make(map[VariableID]bool)
	var out []VariableID
	t.Walk(func(u *Type) bool {
		if v := u.Variable(); v != nil && !seen[v.ID] {
			seen[v.ID] = true
			out = append(out, v.ID)
		}
		return true
	})
	return out
}
