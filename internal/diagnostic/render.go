package diagnostic

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI sequences used by the renderer.
const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// Renderer writes diagnostics to a stream, coloring them when the stream
// is a terminal.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer creates a renderer for w. Color is enabled only when w is
// an *os.File attached to a terminal.
func NewRenderer(w io.Writer) *Renderer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{out: w, color: color}
}

// SetColor overrides terminal detection.
func (r *Renderer) SetColor(on bool) { r.color = on }

// Render writes a single diagnostic.
func (r *Renderer) Render(d Diagnostic) {
	r.render(d, "")
}

// RenderAll writes every diagnostic of the sink in stable order.
func (r *Renderer) RenderAll(s *Sink) {
	for _, d := range s.Sorted() {
		r.Render(d)
	}
}

func (r *Renderer) render(d Diagnostic, indent string) {
	level := d.Level.String()
	if r.color {
		level = r.paint(d.Level) + ansiBold + level + ansiReset
	}
	fmt.Fprintf(r.out, "%s%s: %s: %s\n", indent, d.Site, level, d.Message)
	for _, n := range d.Notes {
		r.render(n, indent+"  ")
	}
}

func (r *Renderer) paint(l Level) string {
	switch l {
	case LevelError:
		return ansiRed
	case LevelWarning:
		return ansiYellow
	default:
		return ansiCyan
	}
}
