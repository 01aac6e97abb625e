// Package diagnostic defines the diagnostics produced by the semantic core
// and the sinks through which the solver and the IR passes report them.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vela-lang/vela/internal/source"
)

// Level classifies the severity of a diagnostic.
type Level int

const (
	LevelNote Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelNote:
		return "note"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single message anchored to a source site.
type Diagnostic struct {
	Level   Level
	Message string
	Site    source.Site
	Notes   []Diagnostic
}

// Error creates an error-level diagnostic.
func Error(site source.Site, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Level: LevelError, Message: fmt.Sprintf(format, args...), Site: site}
}

// Warning creates a warning-level diagnostic.
func Warning(site source.Site, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Level: LevelWarning, Message: fmt.Sprintf(format, args...), Site: site}
}

// Note creates a note-level diagnostic.
func Note(site source.Site, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Level: LevelNote, Message: fmt.Sprintf(format, args...), Site: site}
}

// WithNote returns a copy of d carrying an attached note.
func (d Diagnostic) WithNote(n Diagnostic) Diagnostic {
	d.Notes = append(append([]Diagnostic(nil), d.Notes...), n)
	return d
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", d.Site, d.Level, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n  %s: %s: %s", n.Site, n.Level, n.Message)
	}
	return b.String()
}

// Sink accumulates diagnostics. The zero value is ready to use.
type Sink struct {
	diagnostics []Diagnostic
}

// Report appends a diagnostic to the sink.
func (s *Sink) Report(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// ReportAll appends every diagnostic of ds.
func (s *Sink) ReportAll(ds []Diagnostic) {
	s.diagnostics = append(s.diagnostics, ds...)
}

// Diagnostics returns the accumulated diagnostics in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// ErrorCount returns the number of error-level diagnostics.
func (s *Sink) ErrorCount() int {
	n := 0
	for _, d := range s.diagnostics {
		if d.Level == LevelError {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-level diagnostic was reported.
func (s *Sink) HasErrors() bool { return s.ErrorCount() > 0 }

// Sorted returns the diagnostics ordered by site, then message. Rendering
// uses this order so output is stable across runs.
func (s *Sink) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), s.diagnostics...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Site.File != b.Site.File {
			return a.Site.File < b.Site.File
		}
		if a.Site.Line != b.Site.Line {
			return a.Site.Line < b.Site.Line
		}
		if a.Site.Column != b.Site.Column {
			return a.Site.Column < b.Site.Column
		}
		return a.Message < b.Message
	})
	return out
}
