// Basic type representation for the Vela semantic core.
// This module provides the algebraic types the constraint solver and the
// typed IR operate on, together with their structural flags.
package types

import (
	"fmt"
	"strings"
)

// ====== Core Type System ======

// Kind represents the variant of a type term.
type Kind int

const (
	// KindVariable is an open placeholder with a fresh identity.
	KindVariable Kind = iota
	// KindGenericParam is a generic parameter, skolemized or bound.
	KindGenericParam
	// KindProduct is a nominal record referencing a declaration.
	KindProduct
	// KindTuple is an ordered, labeled element sequence.
	KindTuple
	// KindUnion is an unordered set of member types; empty means never.
	KindUnion
	// KindLambda is a parameter list with labels, an environment, and an output.
	KindLambda
	// KindMethod is a receiver with labeled inputs, output and capabilities.
	KindMethod
	// KindParameter is an access effect applied to a bare type.
	KindParameter
	// KindRemote is a projection handle: access effect plus bare type.
	KindRemote
	// KindMetatype is the type of a type.
	KindMetatype
	// KindExistential is a type erased behind an interface.
	KindExistential
	// KindBoundGeneric is a base applied to generic arguments.
	KindBoundGeneric
	// KindBuiltin is a machine-level type.
	KindBuiltin
	// KindAlias is a declared type alias; eliminated by canonicalization.
	KindAlias
	// KindError marks a poisoned subterm produced after a failure.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindGenericParam:
		return "generic"
	case KindProduct:
		return "product"
	case KindTuple:
		return "tuple"
	case KindUnion:
		return "union"
	case KindLambda:
		return "lambda"
	case KindMethod:
		return "method"
	case KindParameter:
		return "parameter"
	case KindRemote:
		return "remote"
	case KindMetatype:
		return "metatype"
	case KindExistential:
		return "existential"
	case KindBoundGeneric:
		return "bound-generic"
	case KindBuiltin:
		return "builtin"
	case KindAlias:
		return "alias"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Flags carry conservative structural properties of a type term. A flag
// set on any subterm is set on every term containing it, except
// FlagCanonical which requires every subterm to carry it.
type Flags uint8

const (
	// FlagCanonical marks the unique representative of an equivalence class.
	FlagCanonical Flags = 1 << iota
	// FlagHasVariable marks terms containing at least one open variable.
	FlagHasVariable
	// FlagHasError marks terms containing a poisoned subterm.
	FlagHasError
)

// Has reports whether all of the given flags are set.
func (f Flags) Has(o Flags) bool { return f&o == o }

// merged combines child flags: canonicity intersects, taints union.
func merged(fs ...Flags) Flags {
	out := FlagCanonical
	for _, f := range fs {
		if !f.Has(FlagCanonical) {
			out &^= FlagCanonical
		}
		out |= f & (FlagHasVariable | FlagHasError)
	}
	return out
}

// DeclID identifies a declaration in the typed program.
type DeclID uint32

// NodeID identifies a syntactic node (an expression or pattern).
type NodeID uint32

// ScopeID identifies a lexical scope in the typed program.
type ScopeID uint32

// VariableID identifies an open type variable.
type VariableID uint64

// Type is a tagged variant. Data holds the kind-specific payload.
type Type struct {
	Kind  Kind
	Flags Flags
	Data  interface{}
}

// ====== Payloads ======

// VariableType is the payload of an open type variable.
type VariableType struct {
	ID VariableID
}

// GenericParamType is the payload of a generic parameter.
type GenericParamType struct {
	Decl DeclID
	Name string
}

// ProductType is the payload of a nominal record type.
type ProductType struct {
	Decl DeclID
	Name string
}

// TupleElement is one labeled element of a tuple.
type TupleElement struct {
	Label string
	Type  *Type
}

// TupleType is the payload of a tuple.
type TupleType struct {
	Elements []TupleElement
}

// UnionType is the payload of a union. Members are kept in canonical
// order once canonicalized; the empty union is the never type.
type UnionType struct {
	Members []*Type
}

// CallableParam is one labeled input of a lambda or method. HasDefault
// marks parameters that may be skipped at call sites.
type CallableParam struct {
	Label      string
	Type       *Type // a parameter type (access effect + bare type)
	HasDefault bool
}

// LambdaType is the payload of a lambda. Subscript lambdas project rather
// than return.
type LambdaType struct {
	Inputs      []CallableParam
	Environment *Type
	Output      *Type
	Subscript   bool
}

// MethodType is the payload of a method bundle.
type MethodType struct {
	Receiver     *Type
	Inputs       []CallableParam
	Output       *Type
	Capabilities AccessEffectSet
}

// ParameterType is the payload of a parameter type.
type ParameterType struct {
	Access AccessEffect
	Bare   *Type
}

// RemoteType is the payload of a projection handle.
type RemoteType struct {
	Access AccessEffect
	Bare   *Type
}

// MetatypeType is the payload of a metatype.
type MetatypeType struct {
	Instance *Type
}

// ExistentialType is the payload of an existential. Exactly one of Traits
// and Base is meaningful: a nonempty trait set, or a generic/metatype base.
type ExistentialType struct {
	Traits []DeclID
	Base   *Type
}

// TypeArgument is one generic argument of a bound generic.
type TypeArgument struct {
	Key   string
	Value *Type
}

// BoundGenericType is the payload of a generic application.
type BoundGenericType struct {
	Base      *Type
	Arguments []TypeArgument
}

// Builtin enumerates the machine-level types.
type Builtin int

const (
	BuiltinWord Builtin = iota
	BuiltinFloat64
	BuiltinPointer
	BuiltinI1
	BuiltinModule
)

func (b Builtin) String() string {
	switch b {
	case BuiltinWord:
		return "word"
	case BuiltinFloat64:
		return "float64"
	case BuiltinPointer:
		return "ptr"
	case BuiltinI1:
		return "i1"
	case BuiltinModule:
		return "module"
	default:
		return "builtin?"
	}
}

// BuiltinType is the payload of a built-in type.
type BuiltinType struct {
	Which Builtin
}

// AliasType is the payload of a declared type alias.
type AliasType struct {
	Decl    DeclID
	Name    string
	Aliasee *Type
}

// ErrorType is the payload of a poisoned term.
type ErrorType struct{}

// ====== Construction ======

// NewVariable creates an open type variable.
func NewVariable(id VariableID) *Type {
	return &Type{Kind: KindVariable, Flags: FlagCanonical | FlagHasVariable, Data: &VariableType{ID: id}}
}

// NewGenericParam creates a generic parameter type.
func NewGenericParam(decl DeclID, name string) *Type {
	return &Type{Kind: KindGenericParam, Flags: FlagCanonical, Data: &GenericParamType{Decl: decl, Name: name}}
}

// NewProduct creates a nominal record type.
func NewProduct(decl DeclID, name string) *Type {
	return &Type{Kind: KindProduct, Flags: FlagCanonical, Data: &ProductType{Decl: decl, Name: name}}
}

// NewTuple creates a tuple type.
func NewTuple(elements []TupleElement) *Type {
	fs := make([]Flags, len(elements))
	for i, e := range elements {
		fs[i] = e.Type.Flags
	}
	return &Type{Kind: KindTuple, Flags: merged(fs...), Data: &TupleType{Elements: elements}}
}

// Unit is the empty tuple.
func Unit() *Type { return NewTuple(nil) }

// NewUnion creates a union type. The member order given here is
// preserved; canonicalization sorts and deduplicates.
func NewUnion(members []*Type) *Type {
	fs := make([]Flags, len(members))
	for i, m := range members {
		fs[i] = m.Flags
	}
	f := merged(fs...)
	if !isUnionNormal(members) {
		f &^= FlagCanonical
	}
	return &Type{Kind: KindUnion, Flags: f, Data: &UnionType{Members: members}}
}

// Never is the empty union.
func Never() *Type { return NewUnion(nil) }

// NewLambda creates a lambda type.
func NewLambda(inputs []CallableParam, environment, output *Type, subscript bool) *Type {
	fs := []Flags{environment.Flags, output.Flags}
	for _, p := range inputs {
		fs = append(fs, p.Type.Flags)
	}
	return &Type{Kind: KindLambda, Flags: merged(fs...), Data: &LambdaType{
		Inputs: inputs, Environment: environment, Output: output, Subscript: subscript,
	}}
}

// NewMethod creates a method bundle type.
func NewMethod(receiver *Type, inputs []CallableParam, output *Type, capabilities AccessEffectSet) *Type {
	fs := []Flags{receiver.Flags, output.Flags}
	for _, p := range inputs {
		fs = append(fs, p.Type.Flags)
	}
	return &Type{Kind: KindMethod, Flags: merged(fs...), Data: &MethodType{
		Receiver: receiver, Inputs: inputs, Output: output, Capabilities: capabilities,
	}}
}

// NewParameter creates a parameter type.
func NewParameter(access AccessEffect, bare *Type) *Type {
	return &Type{Kind: KindParameter, Flags: merged(bare.Flags), Data: &ParameterType{Access: access, Bare: bare}}
}

// NewRemote creates a projection handle type.
func NewRemote(access AccessEffect, bare *Type) *Type {
	return &Type{Kind: KindRemote, Flags: merged(bare.Flags), Data: &RemoteType{Access: access, Bare: bare}}
}

// NewMetatype creates the type of a type.
func NewMetatype(instance *Type) *Type {
	return &Type{Kind: KindMetatype, Flags: merged(instance.Flags), Data: &MetatypeType{Instance: instance}}
}

// NewTraitExistential creates an existential erased behind a trait set.
func NewTraitExistential(traits []DeclID) *Type {
	return &Type{Kind: KindExistential, Flags: FlagCanonical, Data: &ExistentialType{Traits: traits}}
}

// NewBaseExistential creates an existential erased behind a generic or
// metatype base.
func NewBaseExistential(base *Type) *Type {
	return &Type{Kind: KindExistential, Flags: merged(base.Flags), Data: &ExistentialType{Base: base}}
}

// NewBoundGeneric creates a generic application.
func NewBoundGeneric(base *Type, arguments []TypeArgument) *Type {
	fs := []Flags{base.Flags}
	for _, a := range arguments {
		fs = append(fs, a.Value.Flags)
	}
	f := merged(fs...)
	if !isArgumentsSorted(arguments) {
		f &^= FlagCanonical
	}
	return &Type{Kind: KindBoundGeneric, Flags: f, Data: &BoundGenericType{Base: base, Arguments: arguments}}
}

// NewBuiltin creates a machine-level type.
func NewBuiltin(which Builtin) *Type {
	return &Type{Kind: KindBuiltin, Flags: FlagCanonical, Data: &BuiltinType{Which: which}}
}

// NewAlias creates a declared alias. Aliases are never canonical.
func NewAlias(decl DeclID, name string, aliasee *Type) *Type {
	f := merged(aliasee.Flags) &^ FlagCanonical
	return &Type{Kind: KindAlias, Flags: f, Data: &AliasType{Decl: decl, Name: name, Aliasee: aliasee}}
}

// NewError creates a poisoned term.
func NewError() *Type {
	return &Type{Kind: KindError, Flags: FlagCanonical | FlagHasError, Data: &ErrorType{}}
}

// Shared built-in instances.
var (
	Word    = NewBuiltin(BuiltinWord)
	Float64 = NewBuiltin(BuiltinFloat64)
	Pointer = NewBuiltin(BuiltinPointer)
	I1      = NewBuiltin(BuiltinI1)
)

// ====== Accessors ======

// Variable returns the variable payload, or nil.
func (t *Type) Variable() *VariableType {
	if t.Kind == KindVariable {
		return t.Data.(*VariableType)
	}
	return nil
}

// Tuple returns the tuple payload, or nil.
func (t *Type) Tuple() *TupleType {
	if t.Kind == KindTuple {
		return t.Data.(*TupleType)
	}
	return nil
}

// Union returns the union payload, or nil.
func (t *Type) Union() *UnionType {
	if t.Kind == KindUnion {
		return t.Data.(*UnionType)
	}
	return nil
}

// Lambda returns the lambda payload, or nil.
func (t *Type) Lambda() *LambdaType {
	if t.Kind == KindLambda {
		return t.Data.(*LambdaType)
	}
	return nil
}

// Method returns the method payload, or nil.
func (t *Type) Method() *MethodType {
	if t.Kind == KindMethod {
		return t.Data.(*MethodType)
	}
	return nil
}

// Parameter returns the parameter payload, or nil.
func (t *Type) Parameter() *ParameterType {
	if t.Kind == KindParameter {
		return t.Data.(*ParameterType)
	}
	return nil
}

// Remote returns the remote payload, or nil.
func (t *Type) Remote() *RemoteType {
	if t.Kind == KindRemote {
		return t.Data.(*RemoteType)
	}
	return nil
}

// IsVariable reports whether t is an open variable.
func (t *Type) IsVariable() bool { return t.Kind == KindVariable }

// IsNever reports whether t is the empty union.
func (t *Type) IsNever() bool {
	u := t.Union()
	return u != nil && len(u.Members) == 0
}

// IsLeaf reports whether t has no structural subterms.
func (t *Type) IsLeaf() bool {
	switch t.Kind {
	case KindVariable, KindGenericParam, KindProduct, KindBuiltin, KindError:
		return true
	case KindUnion:
		return len(t.Data.(*UnionType).Members) == 0
	default:
		return false
	}
}

// IsCallable reports whether t is a lambda matching the arrow flag:
// arrow selects function lambdas, its negation subscript lambdas.
func (t *Type) IsCallable(arrow bool) bool {
	l := t.Lambda()
	return l != nil && l.Subscript != arrow
}

// ====== String Representation ======

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindVariable:
		return fmt.Sprintf("%%%d", t.Data.(*VariableType).ID)
	case KindGenericParam:
		return t.Data.(*GenericParamType).Name
	case KindProduct:
		return t.Data.(*ProductType).Name
	case KindTuple:
		d := t.Data.(*TupleType)
		parts := make([]string, len(d.Elements))
		for i, e := range d.Elements {
			if e.Label != "" {
				parts[i] = fmt.Sprintf("%s: %s", e.Label, e.Type)
			} else {
				parts[i] = e.Type.String()
			}
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case KindUnion:
		d := t.Data.(*UnionType)
		if len(d.Members) == 0 {
			return "Never"
		}
		parts := make([]string, len(d.Members))
		for i, m := range d.Members {
			parts[i] = m.String()
		}
		return fmt.Sprintf("Union<%s>", strings.Join(parts, ", "))
	case KindLambda:
		d := t.Data.(*LambdaType)
		arrow := "->"
		if d.Subscript {
			arrow = ":"
		}
		return fmt.Sprintf("[%s](%s) %s %s", d.Environment, joinParams(d.Inputs), arrow, d.Output)
	case KindMethod:
		d := t.Data.(*MethodType)
		return fmt.Sprintf("method[%s](%s) %s -> %s", d.Receiver, joinParams(d.Inputs), d.Capabilities, d.Output)
	case KindParameter:
		d := t.Data.(*ParameterType)
		return fmt.Sprintf("%s %s", d.Access, d.Bare)
	case KindRemote:
		d := t.Data.(*RemoteType)
		return fmt.Sprintf("remote %s %s", d.Access, d.Bare)
	case KindMetatype:
		return fmt.Sprintf("Metatype<%s>", t.Data.(*MetatypeType).Instance)
	case KindExistential:
		d := t.Data.(*ExistentialType)
		if d.Base != nil {
			return fmt.Sprintf("any %s", d.Base)
		}
		parts := make([]string, len(d.Traits))
		for i, tr := range d.Traits {
			parts[i] = fmt.Sprintf("trait#%d", tr)
		}
		return fmt.Sprintf("any %s", strings.Join(parts, " & "))
	case KindBoundGeneric:
		d := t.Data.(*BoundGenericType)
		parts := make([]string, len(d.Arguments))
		for i, a := range d.Arguments {
			parts[i] = fmt.Sprintf("%s: %s", a.Key, a.Value)
		}
		return fmt.Sprintf("%s<%s>", d.Base, strings.Join(parts, ", "))
	case KindBuiltin:
		return "Builtin." + t.Data.(*BuiltinType).Which.String()
	case KindAlias:
		return t.Data.(*AliasType).Name
	case KindError:
		return "<error>"
	default:
		return "<invalid>"
	}
}

func joinParams(ps []CallableParam) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Label != "" {
			parts[i] = fmt.Sprintf("%s: %s", p.Label, p.Type)
		} else {
			parts[i] = "_: " + p.Type.String()
		}
	}
	return strings.Join(parts, ", ")
}

// Labels returns the label sequence of a callable's inputs.
func Labels(ps []CallableParam) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Label
	}
	return out
}

// LabelString renders a label sequence the way diagnostics print it.
func LabelString(labels []string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, l := range labels {
		if l == "" {
			b.WriteString("_:")
		} else {
			b.WriteString(l)
			b.WriteByte(':')
		}
	}
	b.WriteByte(')')
	return b.String()
}
