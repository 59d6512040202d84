package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verith/attest/internal/engine"
	"github.com/verith/attest/internal/impact"
	"github.com/verith/attest/internal/report"
	"github.com/verith/attest/internal/runtime"
	"github.com/verith/attest/internal/store"
	"github.com/verith/attest/internal/target"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Database   string
	Inputs     []string // "name=value" pairs
	WaiverFile string
	Timeout    time.Duration
	MaxQueries int

	// TokenGenerator overrides the run token source (for testing).
	// Nil defaults to UUIDv7Generator.
	TokenGenerator engine.TokenGenerator

	// Target overrides the execution target (for testing).
	// Nil defaults to the local host.
	Target target.Target
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <profile.yaml>",
		Short: "Execute a profile against the local host",
		Long: `Execute a compliance profile against the local host and report
the classified results.

Exit codes:
  0  every control passed (or was not applicable / waived)
  1  at least one control failed or errored
  2  command error (bad profile, unreadable database)

Example:
  attest exec ./profiles/ssh-baseline.yaml
  attest exec --db ./attest.db --input max_sessions=5 ./baseline.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execProfile(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for run history (optional)")
	cmd.Flags().StringArrayVar(&opts.Inputs, "input", nil, "profile input override as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.WaiverFile, "waiver-file", "", "path to waiver YAML file")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", engine.DefaultControlTimeout, "per-control execution timeout")
	cmd.Flags().IntVar(&opts.MaxQueries, "max-queries", engine.DefaultMaxQueries, "per-control target query budget")

	return cmd
}

func execProfile(cmd *cobra.Command, opts *ExecOptions, profilePath string) error {
	loadResult, loadErrs := LoadProfiles(profilePath, LoadModeFailFast)
	if len(loadErrs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load profile", loadErrs[0])
	}
	p := loadResult.Profiles[0]

	overrides, err := parseInputFlags(opts.Inputs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --input", err)
	}
	inputs, err := runtime.ResolveInputs(p, overrides)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve inputs", err)
	}

	resolverOpts := []impact.Option{}
	if opts.WaiverFile != "" {
		waivers, err := impact.LoadWaivers(opts.WaiverFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load waivers", err)
		}
		resolverOpts = append(resolverOpts, impact.WithWaivers(waivers))
	}

	engineOpts := []engine.Option{
		engine.WithControlTimeout(opts.Timeout),
		engine.WithMaxQueries(opts.MaxQueries),
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithStore(st))
	}

	tokens := opts.TokenGenerator
	if tokens == nil {
		tokens = engine.UUIDv7Generator{}
	}
	t := opts.Target
	if t == nil {
		t = target.NewLocal()
	}

	eng := engine.New(t, impact.NewResolver(resolverOpts...), tokens, engineOpts...)

	run, err := eng.Execute(cmd.Context(), p, inputs)
	if err != nil {
		if run == nil {
			return WrapExitError(ExitCommandError, "execution failed", err)
		}
		// Run computed but not persisted. Render it, then fail.
		if renderErr := renderRun(cmd, opts.RootOptions, run); renderErr != nil {
			return WrapExitError(ExitCommandError, "failed to render report", renderErr)
		}
		return WrapExitError(ExitCommandError, "run not persisted", err)
	}

	if err := renderRun(cmd, opts.RootOptions, run); err != nil {
		return WrapExitError(ExitCommandError, "failed to render report", err)
	}

	if run.Stats.Failed > 0 || run.Stats.Errored > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf(
			"%d control(s) failed, %d errored", run.Stats.Failed, run.Stats.Errored))
	}
	return nil
}

// renderRun writes the report in the configured format.
func renderRun(cmd *cobra.Command, opts *RootOptions, run *report.Run) error {
	if opts.Format == "json" {
		return report.RenderJSON(cmd.OutOrStdout(), run)
	}
	return report.RenderText(cmd.OutOrStdout(), run)
}

// parseInputFlags splits repeated --input name=value flags.
func parseInputFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		overrides[name] = value
	}
	return overrides, nil
}
