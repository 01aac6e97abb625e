package diagnostic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vela-lang/vela/internal/source"
)

func site(line int) source.Site {
	return source.Site{File: "main.vela", Line: line, Column: 1}
}

func TestSinkCountsErrors(t *testing.T) {
	s := &Sink{}
	s.Report(Warning(site(1), "odd but legal"))
	s.Report(Error(site(2), "broken"))
	if s.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", s.ErrorCount())
	}
	if !s.HasErrors() {
		t.Error("sink should report errors")
	}
}

func TestSortedIsStableBySite(t *testing.T) {
	s := &Sink{}
	s.Report(Error(site(9), "later"))
	s.Report(Error(site(2), "earlier"))
	got := s.Sorted()
	if got[0].Message != "earlier" || got[1].Message != "later" {
		t.Errorf("diagnostics should order by site, got %v", got)
	}
}

func TestRendererPlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	r.SetColor(false)
	d := Error(site(3), "incompatible types").WithNote(Note(site(1), "declared here"))
	r.Render(d)

	out := buf.String()
	if !strings.Contains(out, "main.vela:3:1: error: incompatible types") {
		t.Errorf("unexpected rendering: %q", out)
	}
	if !strings.Contains(out, "  main.vela:1:1: note: declared here") {
		t.Errorf("notes should render indented: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain rendering must not contain escape sequences")
	}
}

func TestRendererColor(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	r.SetColor(true)
	r.Render(Error(site(3), "boom"))
	if !strings.Contains(buf.String(), "\x1b[31m") {
		t.Error("colored rendering should paint errors red")
	}
}
