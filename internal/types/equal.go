package types

// Equal reports structural equality of two terms. Aliases are compared by
// their aliasee so spelled and expanded forms agree; canonical forms
// compare in linear time.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind == KindAlias {
		return Equal(a.Data.(*AliasType).Aliasee, b)
	}
	if b.Kind == KindAlias {
		return Equal(a, b.Data.(*AliasType).Aliasee)
	}
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindVariable:
		return a.Data.(*VariableType).ID == b.Data.(*VariableType).ID
	case KindGenericParam:
		return a.Data.(*GenericParamType).Decl == b.Data.(*GenericParamType).Decl
	case KindProduct:
		return a.Data.(*ProductType).Decl == b.Data.(*ProductType).Decl
	case KindBuiltin:
		return a.Data.(*BuiltinType).Which == b.Data.(*BuiltinType).Which
	case KindError:
		return true

	case KindTuple:
		da, db := a.Data.(*TupleType), b.Data.(*TupleType)
		if len(da.Elements) != len(db.Elements) {
			return false
		}
		for i := range da.Elements {
			if da.Elements[i].Label != db.Elements[i].Label {
				return false
			}
			if !Equal(da.Elements[i].Type, db.Elements[i].Type) {
				return false
			}
		}
		return true

	case KindUnion:
		// Unions are unordered; compare as sets.
		da, db := a.Data.(*UnionType), b.Data.(*UnionType)
		if len(da.Members) != len(db.Members) {
			return false
		}
		matched := make([]bool, len(db.Members))
	outer:
		for _, m := range da.Members {
			for j, n := range db.Members {
				if !matched[j] && Equal(m, n) {
					matched[j] = true
					continue outer
				}
			}
			return false
		}
		return true

	case KindLambda:
		da, db := a.Data.(*LambdaType), b.Data.(*LambdaType)
		if da.Subscript != db.Subscript || !equalParams(da.Inputs, db.Inputs) {
			return false
		}
		return Equal(da.Environment, db.Environment) && Equal(da.Output, db.Output)

	case KindMethod:
		da, db := a.Data.(*MethodType), b.Data.(*MethodType)
		if da.Capabilities != db.Capabilities || !equalParams(da.Inputs, db.Inputs) {
			return false
		}
		return Equal(da.Receiver, db.Receiver) && Equal(da.Output, db.Output)

	case KindParameter:
		da, db := a.Data.(*ParameterType), b.Data.(*ParameterType)
		return da.Access == db.Access && Equal(da.Bare, db.Bare)

	case KindRemote:
		da, db := a.Data.(*RemoteType), b.Data.(*RemoteType)
		return da.Access == db.Access && Equal(da.Bare, db.Bare)

	case KindMetatype:
		return Equal(a.Data.(*MetatypeType).Instance, b.Data.(*MetatypeType).Instance)

	case KindExistential:
		da, db := a.Data.(*ExistentialType), b.Data.(*ExistentialType)
		if (da.Base == nil) != (db.Base == nil) {
			return false
		}
		if da.Base != nil {
			return Equal(da.Base, db.Base)
		}
		if len(da.Traits) != len(db.Traits) {
			return false
		}
		// Trait sets are unordered.
		set := make(map[DeclID]bool, len(da.Traits))
		for _, d := range da.Traits {
			set[d] = true
		}
		for _, d := range db.Traits {
			if !set[d] {
				return false
			}
		}
		return true

	case KindBoundGeneric:
		da, db := a.Data.(*BoundGenericType), b.Data.(*BoundGenericType)
		if !Equal(da.Base, db.Base) || len(da.Arguments) != len(db.Arguments) {
			return false
		}
		// Argument maps are keyed; match element-wise on keys.
		for _, aa := range da.Arguments {
			v, ok := lookupArgument(db.Arguments, aa.Key)
			if !ok || !Equal(aa.Value, v) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

func equalParams(a, b []CallableParam) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label != b[i].Label || !Equal(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

func lookupArgument(args []TypeArgument, key string) (*Type, bool) {
	for _, a := range args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}
