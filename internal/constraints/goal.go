// Package constraints implements the constraint-based type inference and
// overload resolution engine: a fresh/stale goal queue operating over a
// substitution map and a binding map.
package constraints

import (
	"fmt"
	"strings"

	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// GoalID is the stable identity of a goal: its index in the system's
// append-only goal list.
type GoalID int

// GoalKind represents the variant of a constraint.
type GoalKind int

const (
	// GoalEquality requires two types to unify.
	GoalEquality GoalKind = iota
	// GoalSubtyping requires the left type to be a subtype of the right.
	GoalSubtyping
	// GoalConformance requires a model to conform to a concept.
	GoalConformance
	// GoalParameter requires an argument type to pass to a parameter type.
	GoalParameter
	// GoalMember requires a name to resolve on a subject type.
	GoalMember
	// GoalTupleMember requires an indexed element of a tuple.
	GoalTupleMember
	// GoalCall requires a callee to accept labeled arguments.
	GoalCall
	// GoalMerging joins the branches of a conditional under a supertype.
	GoalMerging
	// GoalDisjunction explores alternative constraint sets.
	GoalDisjunction
	// GoalOverload explores alternative declarations for one expression.
	GoalOverload
)

func (k GoalKind) String() string {
	switch k {
	case GoalEquality:
		return "equality"
	case GoalSubtyping:
		return "subtyping"
	case GoalConformance:
		return "conformance"
	case GoalParameter:
		return "parameter"
	case GoalMember:
		return "member"
	case GoalTupleMember:
		return "tuple-member"
	case GoalCall:
		return "call"
	case GoalMerging:
		return "merging"
	case GoalDisjunction:
		return "disjunction"
	case GoalOverload:
		return "overload"
	default:
		return "unknown"
	}
}

// OriginKind classifies the site that spawned a goal. Subtype failures
// pick their message from it.
type OriginKind int

const (
	OriginInitialization OriginKind = iota
	OriginPatternMatch
	OriginAnnotation
	OriginReturnValue
	OriginBranchMerge
	OriginArgument
	OriginMemberAccess
	OriginCast
	OriginStructural
)

// Origin records where and why a goal was created. Parent marks
// subordinate goals spawned by decomposition; their failures are not
// independently reported.
type Origin struct {
	Site   source.Site
	Kind   OriginKind
	Parent *GoalID
}

// NewOrigin creates a root origin.
func NewOrigin(kind OriginKind, site source.Site) Origin {
	return Origin{Site: site, Kind: kind}
}

// Subordinate derives an origin for a goal spawned by decomposing parent.
func (o Origin) Subordinate(parent GoalID) Origin {
	p := parent
	return Origin{Site: o.Site, Kind: o.Kind, Parent: &p}
}

// IsRoot reports whether the origin has no parent.
func (o Origin) IsRoot() bool { return o.Parent == nil }

// Goal is a constraint tracked by the solver.
type Goal struct {
	Kind   GoalKind
	Origin Origin
	Data   interface{}
}

// ====== Payloads ======

// EqualityGoal requires L and R to unify.
type EqualityGoal struct {
	L, R *types.Type
}

// SubtypingGoal requires L to be a subtype of R; when Strict, equality
// does not satisfy it.
type SubtypingGoal struct {
	L, R   *types.Type
	Strict bool
}

// ConformanceGoal requires Model to conform to Concept.
type ConformanceGoal struct {
	Model   *types.Type
	Concept types.DeclID
}

// ParameterGoal requires argument type L to pass to parameter type R.
type ParameterGoal struct {
	L, R *types.Type
}

// MemberGoal requires Name to resolve on Subject with type MemberType.
type MemberGoal struct {
	Subject    *types.Type
	Name       string
	MemberType *types.Type
	MemberExpr types.NodeID
	Purpose    ResolutionPurpose
}

// TupleMemberGoal requires element Index of Subject to have ElementType.
type TupleMemberGoal struct {
	Subject     *types.Type
	Index       int
	ElementType *types.Type
}

// CallGoal requires Callee to accept Arguments under Labels and produce
// Output. Arrow selects function callees; its negation subscripts.
type CallGoal struct {
	Callee    *types.Type
	Labels    []string
	Arguments []*types.Type
	Output    *types.Type
	Arrow     bool
}

// MergingGoal requires every branch to be a subtype of Supertype.
type MergingGoal struct {
	Supertype *types.Type
	Branches  []*types.Type
}

// Choice is one alternative of a disjunction.
type Choice struct {
	Constraints []Goal
	Penalty     int
}

// DisjunctionGoal explores its choices and keeps the best.
type DisjunctionGoal struct {
	Choices []Choice
}

// DeclRefKind classifies a declaration reference.
type DeclRefKind int

const (
	DeclRefDirect DeclRefKind = iota
	DeclRefMember
	DeclRefRequirement
	DeclRefBuiltinFunction
)

// DeclRef is a reference to a declaration, as recorded by the binding map.
type DeclRef struct {
	Kind DeclRefKind
	Decl types.DeclID
}

func (r DeclRef) String() string {
	return fmt.Sprintf("decl#%d", r.Decl)
}

// Candidate is one possibility for a member or overload resolution. A
// non-viable candidate carries the diagnostic explaining its rejection.
type Candidate struct {
	Reference   DeclRef
	Type        *types.Type
	Constraints []Goal
	Penalty     int
	Viable      bool
	Diagnostic  diagnostic.Diagnostic
}

// OverloadGoal explores candidate declarations for one expression.
type OverloadGoal struct {
	Expr       types.NodeID
	Type       *types.Type
	Candidates []Candidate
}

// ====== Constructors ======

// Equality creates an equality goal.
func Equality(l, r *types.Type, origin Origin) Goal {
	return Goal{Kind: GoalEquality, Origin: origin, Data: &EqualityGoal{L: l, R: r}}
}

// Subtyping creates a subtyping goal.
func Subtyping(l, r *types.Type, strict bool, origin Origin) Goal {
	return Goal{Kind: GoalSubtyping, Origin: origin, Data: &SubtypingGoal{L: l, R: r, Strict: strict}}
}

// Conformance creates a conformance goal.
func Conformance(model *types.Type, concept types.DeclID, origin Origin) Goal {
	return Goal{Kind: GoalConformance, Origin: origin, Data: &ConformanceGoal{Model: model, Concept: concept}}
}

// Parameter creates a parameter-passing goal.
func Parameter(l, r *types.Type, origin Origin) Goal {
	return Goal{Kind: GoalParameter, Origin: origin, Data: &ParameterGoal{L: l, R: r}}
}

// Member creates a member resolution goal.
func Member(subject *types.Type, name string, memberType *types.Type, expr types.NodeID, purpose ResolutionPurpose, origin Origin) Goal {
	return Goal{Kind: GoalMember, Origin: origin, Data: &MemberGoal{
		Subject: subject, Name: name, MemberType: memberType, MemberExpr: expr, Purpose: purpose,
	}}
}

// TupleMember creates a tuple element goal.
func TupleMember(subject *types.Type, index int, elementType *types.Type, origin Origin) Goal {
	return Goal{Kind: GoalTupleMember, Origin: origin, Data: &TupleMemberGoal{
		Subject: subject, Index: index, ElementType: elementType,
	}}
}

// Call creates a call goal.
func Call(callee *types.Type, labels []string, arguments []*types.Type, output *types.Type, arrow bool, origin Origin) Goal {
	return Goal{Kind: GoalCall, Origin: origin, Data: &CallGoal{
		Callee: callee, Labels: labels, Arguments: arguments, Output: output, Arrow: arrow,
	}}
}

// Merging creates a conditional-join goal.
func Merging(supertype *types.Type, branches []*types.Type, origin Origin) Goal {
	return Goal{Kind: GoalMerging, Origin: origin, Data: &MergingGoal{Supertype: supertype, Branches: branches}}
}

// Disjunction creates an exploration goal over choices.
func Disjunction(choices []Choice, origin Origin) Goal {
	return Goal{Kind: GoalDisjunction, Origin: origin, Data: &DisjunctionGoal{Choices: choices}}
}

// Overload creates an exploration goal over candidate declarations.
func Overload(expr types.NodeID, t *types.Type, candidates []Candidate, origin Origin) Goal {
	return Goal{Kind: GoalOverload, Origin: origin, Data: &OverloadGoal{Expr: expr, Type: t, Candidates: candidates}}
}

// ====== Structural helpers ======

// eachType calls f on every type the goal's payload mentions.
func (g *Goal) eachType(f func(*types.Type)) {
	switch d := g.Data.(type) {
	case *EqualityGoal:
		f(d.L)
		f(d.R)
	case *SubtypingGoal:
		f(d.L)
		f(d.R)
	case *ConformanceGoal:
		f(d.Model)
	case *ParameterGoal:
		f(d.L)
		f(d.R)
	case *MemberGoal:
		f(d.Subject)
		f(d.MemberType)
	case *TupleMemberGoal:
		f(d.Subject)
		f(d.ElementType)
	case *CallGoal:
		f(d.Callee)
		for _, a := range d.Arguments {
			f(a)
		}
		f(d.Output)
	case *MergingGoal:
		f(d.Supertype)
		for _, b := range d.Branches {
			f(b)
		}
	case *DisjunctionGoal:
		for i := range d.Choices {
			for j := range d.Choices[i].Constraints {
				d.Choices[i].Constraints[j].eachType(f)
			}
		}
	case *OverloadGoal:
		f(d.Type)
		for i := range d.Candidates {
			f(d.Candidates[i].Type)
			for j := range d.Candidates[i].Constraints {
				d.Candidates[i].Constraints[j].eachType(f)
			}
		}
	}
}

// mentions collects the open variables the goal's reified form mentions.
func (g *Goal) mentions() []types.VariableID {
	seen := make(map[types.VariableID]bool)
	var out []types.VariableID
	g.eachType(func(t *types.Type) {
		for _, v := range t.FreeVariables() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	})
	return out
}

// reified returns a copy of the goal with every mentioned type reified
// under m.
func (g Goal) reified(m *types.SubstitutionMap) Goal {
	r := func(t *types.Type) *types.Type { return m.Reify(t, types.KeepVariables) }
	switch d := g.Data.(type) {
	case *EqualityGoal:
		g.Data = &EqualityGoal{L: r(d.L), R: r(d.R)}
	case *SubtypingGoal:
		g.Data = &SubtypingGoal{L: r(d.L), R: r(d.R), Strict: d.Strict}
	case *ConformanceGoal:
		g.Data = &ConformanceGoal{Model: r(d.Model), Concept: d.Concept}
	case *ParameterGoal:
		g.Data = &ParameterGoal{L: r(d.L), R: r(d.R)}
	case *MemberGoal:
		g.Data = &MemberGoal{
			Subject: r(d.Subject), Name: d.Name, MemberType: r(d.MemberType),
			MemberExpr: d.MemberExpr, Purpose: d.Purpose,
		}
	case *TupleMemberGoal:
		g.Data = &TupleMemberGoal{Subject: r(d.Subject), Index: d.Index, ElementType: r(d.ElementType)}
	case *CallGoal:
		args := make([]*types.Type, len(d.Arguments))
		for i, a := range d.Arguments {
			args[i] = r(a)
		}
		g.Data = &CallGoal{
			Callee: r(d.Callee), Labels: d.Labels, Arguments: args,
			Output: r(d.Output), Arrow: d.Arrow,
		}
	case *MergingGoal:
		branches := make([]*types.Type, len(d.Branches))
		for i, b := range d.Branches {
			branches[i] = r(b)
		}
		g.Data = &MergingGoal{Supertype: r(d.Supertype), Branches: branches}
	}
	// Disjunction and overload payloads are reified inside their forks.
	return g
}

// simplicity orders goals for the fresh worklist: lower is simpler.
func (g *Goal) simplicity() int {
	switch g.Kind {
	case GoalEquality:
		return 0
	case GoalDisjunction:
		return 2 + len(g.Data.(*DisjunctionGoal).Choices)
	case GoalOverload:
		return 2 + len(g.Data.(*OverloadGoal).Candidates)
	default:
		return 1
	}
}

func (g *Goal) String() string {
	switch d := g.Data.(type) {
	case *EqualityGoal:
		return fmt.Sprintf("%s == %s", d.L, d.R)
	case *SubtypingGoal:
		op := "<:"
		if d.Strict {
			op = "<"
		}
		return fmt.Sprintf("%s %s %s", d.L, op, d.R)
	case *ConformanceGoal:
		return fmt.Sprintf("%s : concept#%d", d.Model, d.Concept)
	case *ParameterGoal:
		return fmt.Sprintf("%s passes to %s", d.L, d.R)
	case *MemberGoal:
		return fmt.Sprintf("member %s of %s as %s", d.Name, d.Subject, d.MemberType)
	case *TupleMemberGoal:
		return fmt.Sprintf("%s.%d == %s", d.Subject, d.Index, d.ElementType)
	case *CallGoal:
		kind := "call"
		if !d.Arrow {
			kind = "subscript"
		}
		return fmt.Sprintf("%s %s%s -> %s", kind, d.Callee, types.LabelString(d.Labels), d.Output)
	case *MergingGoal:
		parts := make([]string, len(d.Branches))
		for i, b := range d.Branches {
			parts[i] = b.String()
		}
		return fmt.Sprintf("merge [%s] into %s", strings.Join(parts, ", "), d.Supertype)
	case *DisjunctionGoal:
		return fmt.Sprintf("disjunction(%d)", len(d.Choices))
	case *OverloadGoal:
		return fmt.Sprintf("overload expr#%d (%d candidates)", d.Expr, len(d.Candidates))
	default:
		return g.Kind.String()
	}
}
