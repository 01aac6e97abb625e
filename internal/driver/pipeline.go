package driver

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vela-lang/vela/internal/constraints"
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/ir"
	"github.com/vela-lang/vela/internal/passes"
	"github.com/vela-lang/vela/internal/program"
	"github.com/vela-lang/vela/internal/source"
)

// ConstraintJob is one constraint system to solve, anchored at the site
// of the declaration that produced it.
type ConstraintJob struct {
	System *constraints.System
	Site   source.Site
}

// Job is the unit of work handed to the driver by the front-end
// collaborators: a typed program, the constraint systems of its
// declarations, and the raw IR emitted for them.
type Job struct {
	Program *program.Program
	Systems []ConstraintJob
	Module  *ir.Module
}

// Result is the outcome of a build.
type Result struct {
	BuildID   uuid.UUID
	Solutions []*constraints.Solution
	Artifact  string
	Sink      *diagnostic.Sink
}

// ExitCode returns the process exit code: zero on success, non-zero
// when a diagnostic error was produced.
func (r *Result) ExitCode() int {
	if r.Sink.HasErrors() {
		return 1
	}
	return 0
}

// Driver runs jobs under a fixed set of options.
type Driver struct {
	Options  Options
	Log      *slog.Logger
	TraceOut io.Writer
}

// New creates a driver.
func New(opts Options, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{Options: opts, Log: log}
}

// Run solves the job's constraint systems, applies the mandatory
// passes, and serializes the requested artifact.
func (d *Driver) Run(job Job) (*Result, error) {
	res := &Result{BuildID: uuid.New(), Sink: &diagnostic.Sink{}}

	for i, cj := range job.Systems {
		if d.traceMatches(cj.Site) {
			cj.System.SetTracer(constraints.NewTracer(d.TraceOut))
		}
		sol := cj.System.Solve(job.Program)
		if sol == nil {
			return nil, fmt.Errorf("system %d: no solution", i)
		}
		res.Solutions = append(res.Solutions, sol)
		res.Sink.ReportAll(sol.Diagnostics())
		if sol.IsSound() {
			if err := job.Program.RecordBindings(sol.Bindings()); err != nil {
				return nil, err
			}
		}
		d.Log.Debug("solved constraint system",
			"index", i, "score", sol.Score(), "sound", sol.IsSound())
	}

	if d.Options.TypecheckOnly || job.Module == nil {
		return res, nil
	}

	if d.Options.Emit == ArtifactRawIR {
		res.Artifact = job.Module.String()
		return res, nil
	}

	passes.RunMandatory(job.Module, res.Sink)
	d.Log.Debug("mandatory passes complete", "functions", len(job.Module.Functions()))

	switch d.Options.Emit {
	case ArtifactIR:
		res.Artifact = job.Module.String()
	case ArtifactLLVM, ArtifactBinary:
		// Native emission is delegated to the back-end collaborator.
		return nil, fmt.Errorf("emission of %s artifacts requires the native back end", d.Options.Emit)
	}
	return res, nil
}

func (d *Driver) traceMatches(site source.Site) bool {
	f := d.Options.TraceInference
	if f.IsZero() || d.TraceOut == nil {
		return false
	}
	return site.File == f.File && site.Line == f.Line
}
