package constraints

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/types"
)

// Solution is the result of a solve: the optimized substitution map, the
// binding map, the cumulative score, the collected diagnostics, and the
// goals that could not be decided.
type Solution struct {
	substitutions *types.SubstitutionMap
	bindings      map[types.NodeID]DeclRef
	penalties     int
	diagnostics   []diagnostic.Diagnostic
	stale         []Goal
}

// Score returns the solution's rank: error count, then penalties.
func (s *Solution) Score() Score {
	errors := 0
	for _, d := range s.diagnostics {
		if d.Level == diagnostic.LevelError {
			errors++
		}
	}
	return Score{Errors: errors, Penalties: s.penalties}
}

// IsSound reports whether the solution carries no errors.
func (s *Solution) IsSound() bool { return s.Score().Errors == 0 }

// Substitutions returns the optimized substitution map.
func (s *Solution) Substitutions() *types.SubstitutionMap { return s.substitutions }

// Bindings returns the name-expression binding map.
func (s *Solution) Bindings() map[types.NodeID]DeclRef { return s.bindings }

// Binding returns the declaration chosen for a name expression.
func (s *Solution) Binding(expr types.NodeID) (DeclRef, bool) {
	r, ok := s.bindings[expr]
	return r, ok
}

// Diagnostics returns the accumulated diagnostics.
func (s *Solution) Diagnostics() []diagnostic.Diagnostic { return s.diagnostics }

// Stale returns the goals left undecided.
func (s *Solution) Stale() []Goal { return s.stale }

// Reify applies the solution's substitutions to t, keeping unresolved
// variables.
func (s *Solution) Reify(t *types.Type) *types.Type {
	return s.substitutions.Reify(t, types.KeepVariables)
}

// addDiagnostic appends d, deduplicating exact repeats so re-invoked
// diagnose closures stay idempotent.
func (s *Solution) addDiagnostic(d diagnostic.Diagnostic) {
	for _, e := range s.diagnostics {
		if e.Level == d.Level && e.Message == d.Message && e.Site == d.Site {
			return
		}
	}
	s.diagnostics = append(s.diagnostics, d)
}
