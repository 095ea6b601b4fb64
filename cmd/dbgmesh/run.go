package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbgmesh"
	"github.com/hupe1980/dbgmesh/config"
	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/directive"
	"github.com/hupe1980/dbgmesh/logging"
	"github.com/hupe1980/dbgmesh/objmodel"
)

// runCmd executes a submission against the configured engine. Arguments are
// joined into one submission; without arguments the submission is read from
// stdin. Each line runs in order through the directive dispatcher.
var runCmd = &cobra.Command{
	Use:   "run [commands...]",
	Short: "Execute engine commands or directives",
	Long: `Executes a submission line by line. Lines starting with "." are
directives (.model, .history); everything else is passed to the engine.
Normal output streams to stdout; error and warning channel text goes to
stderr after each command completes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if cfgPath != "" {
			var err error
			if cfg, err = config.Load(cfgPath); err != nil {
				return err
			}
		}

		logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false)

		mesh, err := dbgmesh.New(
			dbgmesh.WithConfig(cfg),
			dbgmesh.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		defer mesh.Close(context.Background())

		source := strings.Join(args, "\n")
		if source == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			source = string(data)
		}

		disp := newDispatcher(mesh, logger)

		results, err := disp.Execute(cmd.Context(), source)
		for _, res := range results {
			printResult(res)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// newDispatcher wires the built-in directives: .model dumps the parsed object
// model, .history prints the transcript.
func newDispatcher(mesh *dbgmesh.DbgMesh, logger logging.Logger) *directive.Dispatcher {
	disp := directive.NewDispatcher(mesh.Engine(), directive.WithLogger(logger))

	disp.Register("model", func(ctx context.Context, args []string) (core.Output, error) {
		client := objmodel.NewClient(mesh.Engine())
		proc, err := client.Process(ctx)
		if err != nil {
			return core.Output{}, err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "process %d %s\n", proc.ID, proc.Name)
		for _, t := range proc.Threads {
			fmt.Fprintf(&b, "  thread %d (%s) %s\n", t.ID, t.OSID, t.State)
			for _, f := range t.Frames {
				fmt.Fprintf(&b, "    #%d %s!%s+%s\n", f.Index, f.Module, f.Method, f.Offset)
			}
		}
		return core.Output{Normal: b.String()}, nil
	})

	disp.Register("history", func(ctx context.Context, args []string) (core.Output, error) {
		records, err := mesh.History().List()
		if err != nil {
			return core.Output{}, err
		}

		var b strings.Builder
		for _, r := range records {
			fmt.Fprintf(&b, "%s  %-30q  %s\n", r.Started.Format("15:04:05.000"), r.Command, r.Duration)
		}
		return core.Output{Normal: b.String()}, nil
	})

	return disp
}

func printResult(res directive.Result) {
	if res.Output.Normal != "" {
		fmt.Print(res.Output.Normal)
		if !strings.HasSuffix(res.Output.Normal, "\n") {
			fmt.Println()
		}
	}
	if diag := res.Output.Diagnostic(); diag != nil {
		fmt.Fprintln(os.Stderr, diag)
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", res.Err)
	}
}
