// Package program binds syntactic nodes to resolved types and
// declaration references, and exposes the query surface the constraint
// solver and the IR lowering consume.
package program

import (
	"fmt"
	"sort"

	"github.com/vela-lang/vela/internal/constraints"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// DeclKind classifies declarations.
type DeclKind int

const (
	DeclProduct DeclKind = iota
	DeclTrait
	DeclFunction
	DeclSubscript
	DeclBinding
	DeclGenericParam
	DeclTypeAlias
	DeclRequirement
)

func (k DeclKind) String() string {
	switch k {
	case DeclProduct:
		return "product"
	case DeclTrait:
		return "trait"
	case DeclFunction:
		return "function"
	case DeclSubscript:
		return "subscript"
	case DeclBinding:
		return "binding"
	case DeclGenericParam:
		return "generic-param"
	case DeclTypeAlias:
		return "type-alias"
	case DeclRequirement:
		return "requirement"
	default:
		return "decl?"
	}
}

// Decl is a declaration known to the typed program.
type Decl struct {
	Kind        DeclKind
	Name        string
	Type        *types.Type
	Site        source.Site
	Scope       types.ScopeID
	Trait       types.DeclID // for requirements, the declaring trait
	ModuleEntry bool
}

// Conformance declares that a model satisfies a concept in some scope.
type Conformance struct {
	Model   *types.Type
	Concept types.DeclID
	Scope   types.ScopeID
	Site    source.Site
}

// Program is the typed program under checking. It holds the declaration
// table, the conformance table, and the binding map produced by solved
// constraint systems. It carries no process-global state; concurrent
// solves in one process use distinct instances.
type Program struct {
	decls        []Decl
	conformances []Conformance

	// members indexes candidate declarations by (subject canonical
	// rendering, name); populated by DeclareMember.
	members map[memberKey][]types.DeclID

	// bindings is the accumulated binding map from solved systems.
	bindings map[types.NodeID]constraints.DeclRef

	// builtinConcepts maps the declarations of structurally conforming
	// concepts.
	builtinConcepts map[types.DeclID]constraints.BuiltinConcept

	// canonicalCache memoizes canonicalization. Memoization never
	// mutates observable results mid-solve.
	canonicalCache map[*types.Type]*types.Type
}

type memberKey struct {
	subject string
	name    string
}

// New creates an empty typed program.
func New() *Program {
	return &Program{
		members:         make(map[memberKey][]types.DeclID),
		bindings:        make(map[types.NodeID]constraints.DeclRef),
		builtinConcepts: make(map[types.DeclID]constraints.BuiltinConcept),
		canonicalCache:  make(map[*types.Type]*types.Type),
	}
}

// Declare adds a declaration and returns its identity.
func (p *Program) Declare(d Decl) types.DeclID {
	id := types.DeclID(len(p.decls))
	p.decls = append(p.decls, d)
	return id
}

// Decl returns a declaration by identity.
func (p *Program) Decl(id types.DeclID) Decl { return p.decls[id] }

// DeclareMember registers decl as a member candidate for name on subject.
func (p *Program) DeclareMember(subject *types.Type, name string, decl types.DeclID) {
	k := memberKey{subject: types.Canonical(subject).String(), name: name}
	p.members[k] = append(p.members[k], decl)
}

// DeclareConformance records an explicit conformance.
func (p *Program) DeclareConformance(c Conformance) {
	p.conformances = append(p.conformances, c)
}

// MarkBuiltinConcept identifies decl as a structurally conforming
// concept.
func (p *Program) MarkBuiltinConcept(decl types.DeclID, which constraints.BuiltinConcept) {
	p.builtinConcepts[decl] = which
}

// RecordBindings merges a solution's binding map. Each expression gets
// at most one binding; conflicting rebinding is a checker bug.
func (p *Program) RecordBindings(bindings map[types.NodeID]constraints.DeclRef) error {
	for expr, ref := range bindings {
		if prev, ok := p.bindings[expr]; ok && prev != ref {
			return fmt.Errorf("expression #%d bound twice: %s and %s", expr, prev, ref)
		}
		p.bindings[expr] = ref
	}
	return nil
}

// Binding returns the declaration bound to a name expression.
func (p *Program) Binding(expr types.NodeID) (constraints.DeclRef, bool) {
	r, ok := p.bindings[expr]
	return r, ok
}

// ====== Checker queries ======

// ConformedTraits returns the concepts model explicitly conforms to in
// scope, in declaration order.
func (p *Program) ConformedTraits(model *types.Type, scope types.ScopeID) []types.DeclID {
	var out []types.DeclID
	for _, c := range p.conformances {
		if c.Scope == scope || c.Scope == 0 {
			if p.AreEquivalent(c.Model, model) {
				out = append(out, c.Concept)
			}
		}
	}
	return out
}

// DeclType returns the declared type of a declaration.
func (p *Program) DeclType(decl types.DeclID) *types.Type {
	return p.decls[decl].Type
}

// DeclName returns the source name of a declaration.
func (p *Program) DeclName(decl types.DeclID) string {
	return p.decls[decl].Name
}

// Canonical returns the canonical form of t under the ambient relations.
func (p *Program) Canonical(t *types.Type) *types.Type {
	if t.Flags.Has(types.FlagCanonical) {
		return t
	}
	if c, ok := p.canonicalCache[t]; ok {
		return c
	}
	c := types.Canonical(t)
	p.canonicalCache[t] = c
	return c
}

// AreEquivalent reports equivalence under the ambient relations.
func (p *Program) AreEquivalent(a, b *types.Type) bool {
	return types.Equal(p.Canonical(a), p.Canonical(b))
}

// Resolve looks up name on subject and returns the candidate set. Each
// candidate carries its declared type and is marked viable; no shape
// check is made here, the solver decides which candidates apply.
func (p *Program) Resolve(name string, parameterizedBy []*types.Type, subject *types.Type, scope types.ScopeID, purpose constraints.ResolutionPurpose) []constraints.Candidate {
	k := memberKey{subject: p.Canonical(subject).String(), name: name}
	ids := p.members[k]
	out := make([]constraints.Candidate, 0, len(ids))
	for _, id := range ids {
		d := p.decls[id]
		kind := constraints.DeclRefMember
		if d.Kind == DeclRequirement {
			kind = constraints.DeclRefRequirement
		}
		out = append(out, constraints.Candidate{
			Reference: constraints.DeclRef{Kind: kind, Decl: id},
			Type:      d.Type,
			Viable:    true,
		})
	}
	return out
}

// Open replaces each generic parameter of t with a fresh variable,
// consistently for repeated occurrences.
func (p *Program) Open(t *types.Type, site source.Site, fresh func() *types.Type) *types.Type {
	opened := make(map[types.DeclID]*types.Type)
	return t.Transform(func(u *types.Type) (*types.Type, types.TransformAction) {
		if u.Kind != types.KindGenericParam {
			return u, types.StepInto
		}
		g := u.Data.(*types.GenericParamType)
		v, ok := opened[g.Decl]
		if !ok {
			v = fresh()
			opened[g.Decl] = v
		}
		return v, types.StepOver
	})
}

// IsRequirement reports whether decl is a trait requirement.
func (p *Program) IsRequirement(decl types.DeclID) bool {
	return p.decls[decl].Kind == DeclRequirement
}

// IsModuleEntry reports whether decl is an entry of the module under
// checking.
func (p *Program) IsModuleEntry(decl types.DeclID) bool {
	return p.decls[decl].ModuleEntry
}

// BuiltinConcept identifies structurally conforming concepts.
func (p *Program) BuiltinConcept(decl types.DeclID) constraints.BuiltinConcept {
	if c, ok := p.builtinConcepts[decl]; ok {
		return c
	}
	return constraints.ConceptNone
}

// Decls returns all declaration identities in stable order.
func (p *Program) Decls() []types.DeclID {
	out := make([]types.DeclID, len(p.decls))
	for i := range p.decls {
		out[i] = types.DeclID(i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ constraints.Checker = (*Program)(nil)
