package constraints

import (
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// ResolutionPurpose states how a resolved member will be used.
type ResolutionPurpose int

const (
	PurposeUse ResolutionPurpose = iota
	PurposeMutation
	PurposeCall
)

func (p ResolutionPurpose) String() string {
	switch p {
	case PurposeUse:
		return "use"
	case PurposeMutation:
		return "mutation"
	case PurposeCall:
		return "call"
	default:
		return "purpose?"
	}
}

// BuiltinConcept identifies the concepts the solver treats structurally.
type BuiltinConcept int

const (
	ConceptNone BuiltinConcept = iota
	ConceptMovable
	ConceptForeignConvertible
)

// Checker is the typed-program query surface the solver consumes. All
// methods are pure queries from the solver's perspective; implementations
// may memoize but must not mutate observable results mid-solve, and must
// hold no process-global state.
type Checker interface {
	// ConformedTraits returns the concepts model explicitly conforms to
	// in scope.
	ConformedTraits(model *types.Type, scope types.ScopeID) []types.DeclID

	// DeclType returns the declared type of a declaration.
	DeclType(decl types.DeclID) *types.Type

	// DeclName returns the source name of a declaration, for diagnostics.
	DeclName(decl types.DeclID) string

	// Canonical returns the canonical form under the ambient relations.
	Canonical(t *types.Type) *types.Type

	// AreEquivalent reports equivalence under the ambient relations.
	AreEquivalent(a, b *types.Type) bool

	// Resolve looks up name on subject, parameterized by the given
	// generic arguments, in context, exposed to scope, used as purpose.
	Resolve(name string, parameterizedBy []*types.Type, subject *types.Type, scope types.ScopeID, purpose ResolutionPurpose) []Candidate

	// Open replaces each generic parameter of t with a fresh variable
	// obtained from fresh, recording the opening at site.
	Open(t *types.Type, site source.Site, fresh func() *types.Type) *types.Type

	// IsRequirement reports whether decl is a trait requirement.
	IsRequirement(decl types.DeclID) bool

	// IsModuleEntry reports whether decl is an entry of the module under
	// checking.
	IsModuleEntry(decl types.DeclID) bool

	// BuiltinConcept identifies concepts with structural conformance
	// rules.
	BuiltinConcept(decl types.DeclID) BuiltinConcept
}
