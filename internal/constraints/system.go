package constraints

import (
	"sort"

	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/types"
)

// System is the solver state. It holds no references to live program or
// IR objects, so forks for disjunction and overload exploration are deep
// value clones.
type System struct {
	scope types.ScopeID

	goals    []Goal
	outcomes OutcomeTable

	// fresh is the worklist, kept ordered with the most complex goals at
	// the head; goals are popped from the tail.
	fresh []GoalID

	// stale holds postponed goals awaiting more substitution progress,
	// indexed by the variables their reified forms mention.
	stale     []GoalID
	staleVars map[GoalID][]types.VariableID

	typeAssumptions    *types.SubstitutionMap
	bindingAssumptions map[types.NodeID]DeclRef
	penalties          int

	// failedRoots tracks the root goals poisoned by a failure, counted
	// by the score.
	failedRoots map[GoalID]bool

	nextVariable types.VariableID

	tracer *Tracer
}

// NewSystem creates a solver over the given seed constraints, initial
// binding map, and scope.
func NewSystem(scope types.ScopeID, seeds []Goal, bindings map[types.NodeID]DeclRef) *System {
	s := &System{
		scope:              scope,
		staleVars:          make(map[GoalID][]types.VariableID),
		typeAssumptions:    types.NewSubstitutionMap(),
		bindingAssumptions: make(map[types.NodeID]DeclRef),
		failedRoots:        make(map[GoalID]bool),
	}
	for k, v := range bindings {
		s.bindingAssumptions[k] = v
	}
	for _, g := range seeds {
		s.insert(g)
	}
	return s
}

// SetTracer installs a step tracer. The tracer is shared by forks.
func (s *System) SetTracer(t *Tracer) { s.tracer = t }

// FreshVariable mints an open type variable unique within this solve.
func (s *System) FreshVariable() *types.Type {
	v := types.NewVariable(s.nextVariable)
	s.nextVariable++
	return v
}

// ReserveVariables advances the variable counter past id, for callers
// that seeded constraints with their own variables.
func (s *System) ReserveVariables(id types.VariableID) {
	if id >= s.nextVariable {
		s.nextVariable = id + 1
	}
}

// insert appends a goal and schedules it on the fresh list, keeping the
// simplicity order: simplest goals sit at the tail.
func (s *System) insert(g Goal) GoalID {
	id := GoalID(len(s.goals))
	s.goals = append(s.goals, g)
	s.outcomes = append(s.outcomes, Outcome{})
	at := s.insertionPoint(g.simplicity())
	s.fresh = append(s.fresh, 0)
	copy(s.fresh[at+1:], s.fresh[at:])
	s.fresh[at] = id
	return id
}

// insertionPoint keeps fresh ordered with the most complex goals at the
// head; equally simple goals sit nearer the tail, popped first.
func (s *System) insertionPoint(c int) int {
	at := len(s.fresh)
	for at > 0 && s.goals[s.fresh[at-1]].simplicity() < c {
		at--
	}
	return at
}

// schedule inserts a subordinate goal of parent and traces it. The
// goal's origin kind and site are preserved; only the parent link is
// forced so subordinate failures are not independently reported.
func (s *System) schedule(g Goal, parent GoalID) GoalID {
	p := parent
	if !g.Origin.Site.IsKnown() {
		g.Origin.Site = s.goals[parent].Origin.Site
	}
	g.Origin.Parent = &p
	id := s.insert(g)
	s.tracer.schedule(id, &s.goals[id])
	return id
}

// scheduleAll inserts a batch of subordinates.
func (s *System) scheduleAll(gs []Goal, parent GoalID) []GoalID {
	ids := make([]GoalID, len(gs))
	for i, g := range gs {
		ids[i] = s.schedule(g, parent)
	}
	return ids
}

// pop removes and returns the simplest fresh goal.
func (s *System) pop() GoalID {
	id := s.fresh[len(s.fresh)-1]
	s.fresh = s.fresh[:len(s.fresh)-1]
	return id
}

// postpone moves a goal to the stale set until a variable it mentions is
// substituted. Postponing is the only way to avoid non-termination when
// both sides of a relation are unconstrained variables.
func (s *System) postpone(id GoalID) {
	s.stale = append(s.stale, id)
	s.staleVars[id] = s.goals[id].mentions()
	s.tracer.deferGoal(id)
}

// assume binds v and revives every stale goal whose reified form changes
// under the new assignment.
func (s *System) assume(v types.VariableID, t *types.Type) {
	s.typeAssumptions.Assign(v, t)
	s.tracer.assume(types.NewVariable(v), t)

	kept := s.stale[:0]
	for _, id := range s.stale {
		if mentionsVariable(s.staleVars[id], v) {
			delete(s.staleVars, id)
			s.reschedule(id)
		} else {
			kept = append(kept, id)
		}
	}
	s.stale = kept
}

func mentionsVariable(vs []types.VariableID, v types.VariableID) bool {
	for _, u := range vs {
		if u == v {
			return true
		}
	}
	return false
}

// reschedule puts a revived goal back on the fresh list.
func (s *System) reschedule(id GoalID) {
	at := s.insertionPoint(s.goals[id].simplicity())
	s.fresh = append(s.fresh, 0)
	copy(s.fresh[at+1:], s.fresh[at:])
	s.fresh[at] = id
	s.tracer.refresh(id)
}

// setOutcome records a goal's result. It is a one-time assignment.
func (s *System) setOutcome(id GoalID, o Outcome) {
	if s.outcomes[id].State != OutcomePending {
		panic("outcome assigned twice")
	}
	s.outcomes[id] = o
	switch o.State {
	case OutcomeSucceeded:
		s.tracer.success(id)
	case OutcomeFailed:
		s.tracer.failure(id)
		s.failedRoots[s.rootOf(id)] = true
	}
}

// succeed records a success outcome.
func (s *System) succeed(id GoalID) {
	s.setOutcome(id, Outcome{State: OutcomeSucceeded})
}

// fail records a failure outcome with its diagnose closure.
func (s *System) fail(id GoalID, diagnose DiagnoseFunc) {
	s.setOutcome(id, Outcome{State: OutcomeFailed, Diagnose: diagnose})
}

// product records an outcome that succeeds iff all subordinates succeed.
func (s *System) product(id GoalID, subordinates []GoalID, diagnose DiagnoseFunc) {
	s.setOutcome(id, Outcome{State: OutcomeProduct, Subordinates: subordinates, Diagnose: diagnose})
}

// rootOf follows origin parents to the root goal.
func (s *System) rootOf(id GoalID) GoalID {
	for s.goals[id].Origin.Parent != nil {
		id = *s.goals[id].Origin.Parent
	}
	return id
}

// currentScore is the running score of this solver state.
func (s *System) currentScore() Score {
	return Score{Errors: len(s.failedRoots), Penalties: s.penalties}
}

// clone produces an isolated fork of the solver state.
func (s *System) clone() *System {
	out := &System{
		scope:              s.scope,
		goals:              append([]Goal(nil), s.goals...),
		outcomes:           append(OutcomeTable(nil), s.outcomes...),
		fresh:              append([]GoalID(nil), s.fresh...),
		stale:              append([]GoalID(nil), s.stale...),
		staleVars:          make(map[GoalID][]types.VariableID, len(s.staleVars)),
		typeAssumptions:    s.typeAssumptions.Clone(),
		bindingAssumptions: make(map[types.NodeID]DeclRef, len(s.bindingAssumptions)),
		penalties:          s.penalties,
		failedRoots:        make(map[GoalID]bool, len(s.failedRoots)),
		nextVariable:       s.nextVariable,
		tracer:             s.tracer,
	}
	for k, v := range s.staleVars {
		out.staleVars[k] = v
	}
	for k, v := range s.bindingAssumptions {
		out.bindingAssumptions[k] = v
	}
	for k := range s.failedRoots {
		out.failedRoots[k] = true
	}
	return out
}

// Solve runs the system to completion and returns the best solution.
func (s *System) Solve(checker Checker) *Solution {
	if s.tracer.enabled() {
		s.tracer.Queues(s)
		s.tracer.Steps()
	}
	return s.run(WorstScore, checker)
}

// SolveNotWorseThan runs the system, aborting with nil as soon as no
// solution at least as good as bound is reachable.
func (s *System) SolveNotWorseThan(bound Score, checker Checker) *Solution {
	return s.run(bound, checker)
}

func (s *System) run(bound Score, checker Checker) *Solution {
	for len(s.fresh) > 0 {
		if bound.Less(s.currentScore()) {
			s.tracer.abort()
			return nil
		}

		id := s.pop()
		s.goals[id] = s.goals[id].reified(s.typeAssumptions)
		g := &s.goals[id]
		s.tracer.solve(id, g)
		s.tracer.push()

		switch g.Kind {
		case GoalEquality:
			s.solveEquality(id)
		case GoalSubtyping:
			s.solveSubtyping(id, checker)
		case GoalConformance:
			s.solveConformance(id, checker)
		case GoalParameter:
			s.solveParameter(id)
		case GoalMember:
			s.solveMember(id, checker)
		case GoalTupleMember:
			s.solveTupleMember(id)
		case GoalCall:
			s.solveCall(id)
		case GoalMerging:
			s.solveMerging(id)
		case GoalDisjunction, GoalOverload:
			// The winning fork consumed the rest of the work.
			sol := s.explore(id, bound, checker)
			s.tracer.pop()
			return sol
		}
		s.tracer.pop()
	}
	return s.finalize()
}

// finalize fails the undecidable stale goals and assembles the solution.
func (s *System) finalize() *Solution {
	staleGoals := make([]Goal, 0, len(s.stale))
	for _, id := range s.stale {
		id := id
		g := s.goals[id].reified(s.typeAssumptions)
		s.goals[id] = g
		staleGoals = append(staleGoals, g)
		desc := g.String()
		site := g.Origin.Site
		s.fail(id, func(sink *diagnostic.Sink, m *types.SubstitutionMap, outcomes OutcomeTable) {
			sink.Report(diagnostic.Error(site, "not enough context to solve %s", desc))
		})
	}
	s.stale = nil

	sol := &Solution{
		substitutions: s.typeAssumptions.Optimized(),
		bindings:      s.bindingAssumptions,
		penalties:     s.penalties,
		stale:         staleGoals,
	}

	// Diagnostics come only from failing root goals.
	sink := &diagnostic.Sink{}
	for id := range s.goals {
		id := GoalID(id)
		if !s.goals[id].Origin.IsRoot() {
			continue
		}
		if !s.outcomes.Failed(id) {
			continue
		}
		s.diagnoseTree(id, sink)
	}
	for _, d := range sink.Diagnostics() {
		sol.addDiagnostic(d)
	}
	return sol
}

// diagnoseTree renders the failure of a root goal, delegating to the
// first failing subordinate when the root has no closure of its own.
func (s *System) diagnoseTree(id GoalID, sink *diagnostic.Sink) {
	o := s.outcomes[id]
	if o.Diagnose != nil {
		o.Diagnose(sink, s.typeAssumptions, s.outcomes)
		return
	}
	for _, sub := range o.Subordinates {
		if s.outcomes.Failed(sub) {
			s.diagnoseTree(sub, sink)
			return
		}
	}
	g := s.goals[id]
	sink.Report(diagnostic.Error(g.Origin.Site, "type error: %s", g.String()))
}

// sortedBindingKeys returns the bound expressions in stable order.
func sortedBindingKeys(m map[types.NodeID]DeclRef) []types.NodeID {
	out := make([]types.NodeID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
