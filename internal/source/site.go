// Package source provides source locations used by diagnostics and the
// typed intermediate representation.
package source

import "fmt"

// Site identifies a position in a source file.
type Site struct {
	File   string
	Line   int
	Column int
}

// String returns the conventional file:line:column rendering.
func (s Site) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsKnown reports whether the site refers to an actual file position.
func (s Site) IsKnown() bool { return s.File != "" }

// Span is a half-open region of a source file.
type Span struct {
	Start Site
	End   Site
}

// String renders the span as its start site.
func (s Span) String() string { return s.Start.String() }
