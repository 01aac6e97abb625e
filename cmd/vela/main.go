// Command vela is the driver entry point for the Vela compiler
// toolchain.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/driver"
	"github.com/vela-lang/vela/internal/ir"
	"github.com/vela-lang/vela/internal/program"
)

var (
	version = "0.7.2"
	commit  = "dev"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vela",
		Short:         "The Vela compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print toolchain version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vela %s (%s)\n", version, commit)
		},
	}
}

type buildFlags struct {
	compileAsModules bool
	importBuiltin    bool
	noStd            bool
	typecheckOnly    bool
	traceInference   string
	emit             string
	transforms       []string
	searchPaths      []string
	linkLibraries    []string
	output           string
	verbose          bool
	optimize         bool
	watch            bool
	manifest         string
}

func newBuildCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "build [manifest-dir]",
		Short: "Compile a Vela module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runBuild(dir, flags)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.compileAsModules, "compile-as-modules", false, "treat each input as a separate module")
	f.BoolVar(&flags.importBuiltin, "import-builtin", false, "expose the Builtin module")
	f.BoolVar(&flags.noStd, "no-std", false, "do not link the standard library")
	f.BoolVar(&flags.typecheckOnly, "typecheck-only", false, "stop after type checking")
	f.StringVar(&flags.traceInference, "trace-inference", "", "trace type inference at file:line")
	f.StringVar(&flags.emit, "emit", "ir", "artifact kind: raw-ast|raw-ir|ir|llvm|binary")
	f.StringSliceVar(&flags.transforms, "transform", nil, "IR transform list")
	f.StringArrayVarP(&flags.searchPaths, "library-path", "L", nil, "library search path (repeatable)")
	f.StringArrayVarP(&flags.linkLibraries, "link", "l", nil, "link library (repeatable)")
	f.StringVarP(&flags.output, "output", "o", "", "output path")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	f.BoolVarP(&flags.optimize, "optimize", "O", false, "enable optimizations")
	f.BoolVar(&flags.watch, "watch", false, "rebuild when sources change")
	f.StringVar(&flags.manifest, "manifest", "vela.yaml", "manifest file name")
	return cmd
}

func runBuild(dir string, flags buildFlags) error {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	opts, err := optionsFrom(flags)
	if err != nil {
		return err
	}
	manifest, err := driver.LoadManifest(dir + "/" + flags.manifest)
	if err != nil {
		return err
	}
	if err := manifest.ApplyTo(&opts); err != nil {
		return err
	}
	log.Info("building module", "name", manifest.Name, "emit", opts.Emit)

	build := func() error {
		d := driver.New(opts, log)
		d.TraceOut = os.Stderr

		// The parser front end hands jobs to the driver; invoked bare,
		// the toolchain compiles the module's interface stub only.
		job := driver.Job{
			Program: program.New(),
			Module:  ir.NewModule(manifest.Name),
		}
		res, err := d.Run(job)
		if err != nil {
			return err
		}

		r := diagnostic.NewRenderer(os.Stderr)
		r.RenderAll(res.Sink)
		if res.Artifact != "" {
			if opts.OutputPath != "" {
				return os.WriteFile(opts.OutputPath, []byte(res.Artifact), 0o644)
			}
			fmt.Print(res.Artifact)
		}
		if code := res.ExitCode(); code != 0 {
			return fmt.Errorf("build failed with %d errors", res.Sink.ErrorCount())
		}
		log.Debug("build complete", "id", res.BuildID)
		return nil
	}

	if err := build(); err != nil {
		return err
	}
	if !flags.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return driver.Watch(ctx, append([]string{dir}, opts.SearchPaths...), log, build)
}

func optionsFrom(flags buildFlags) (driver.Options, error) {
	opts := driver.Options{
		CompileAsModules: flags.compileAsModules,
		ImportBuiltin:    flags.importBuiltin,
		NoStd:            flags.noStd,
		TypecheckOnly:    flags.typecheckOnly,
		Transforms:       flags.transforms,
		SearchPaths:      flags.searchPaths,
		LinkLibraries:    flags.linkLibraries,
		OutputPath:       flags.output,
		Verbose:          flags.verbose,
		Optimize:         flags.optimize,
	}
	kind, err := driver.ParseArtifactKind(flags.emit)
	if err != nil {
		return opts, err
	}
	opts.Emit = kind
	if flags.traceInference != "" {
		filter, err := driver.ParseTraceFilter(flags.traceInference)
		if err != nil {
			return opts, err
		}
		opts.TraceInference = filter
	}
	return opts, nil
}
