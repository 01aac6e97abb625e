package constraints

import (
	"fmt"
	"io"
	"strings"
)

// Tracer renders the solver's steps as an indented tree. The format is
// stable across deterministic runs so harnesses can diff it.
type Tracer struct {
	out   io.Writer
	depth int
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{out: w}
}

func (t *Tracer) enabled() bool { return t != nil && t.out != nil }

func (t *Tracer) line(format string, args ...interface{}) {
	if !t.enabled() {
		return
	}
	fmt.Fprintf(t.out, "%s%s\n", strings.Repeat("  ", t.depth), fmt.Sprintf(format, args...))
}

func (t *Tracer) push() {
	if t.enabled() {
		t.depth++
	}
}

func (t *Tracer) pop() {
	if t.enabled() && t.depth > 0 {
		t.depth--
	}
}

// Queues emits the fresh: and stale: headers describing the worklists.
func (t *Tracer) Queues(s *System) {
	if !t.enabled() {
		return
	}
	t.line("fresh:")
	t.push()
	for i := len(s.fresh) - 1; i >= 0; i-- {
		id := s.fresh[i]
		g := s.goals[id]
		t.line("#%d %s", id, g.String())
	}
	t.pop()
	t.line("stale:")
	t.push()
	for _, id := range s.stale {
		g := s.goals[id]
		t.line("#%d %s", id, g.String())
	}
	t.pop()
}

// Steps emits the steps: header opening the step log.
func (t *Tracer) Steps() { t.line("steps:") }

func (t *Tracer) schedule(id GoalID, g *Goal) { t.line("schedule #%d %s", id, g.String()) }
func (t *Tracer) solve(id GoalID, g *Goal)   { t.line("solve #%d %s", id, g.String()) }
func (t *Tracer) fork(id GoalID)             { t.line("fork #%d", id) }
func (t *Tracer) pick(choice int)            { t.line("pick %d", choice) }
func (t *Tracer) skip(choice int)            { t.line("skip %d", choice) }
func (t *Tracer) assume(v, ty fmt.Stringer)  { t.line("assume %s := %s", v, ty) }
func (t *Tracer) refresh(id GoalID)          { t.line("refresh #%d", id) }
func (t *Tracer) success(id GoalID)          { t.line("success #%d", id) }
func (t *Tracer) failure(id GoalID)          { t.line("failure #%d", id) }
func (t *Tracer) breakExploration()          { t.line("break") }
func (t *Tracer) deferGoal(id GoalID)        { t.line("defer #%d", id) }
func (t *Tracer) abort()                     { t.line("abort") }
