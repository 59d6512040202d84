package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/query"
	"github.com/verith/attest/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database  string
	Status    string
	MinImpact float64
	Control   string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <run-token>",
		Short: "Render a stored run report",
		Long: `Load a persisted run from the database and render its report,
optionally narrowed by result filters. Stats always describe the full
run, not the filtered subset.

Example:
  attest report --db ./attest.db 0192d3f0-...
  attest report --db ./attest.db --status failed --min-impact 0.7 0192d3f0-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showReport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only results with this status")
	cmd.Flags().Float64Var(&opts.MinImpact, "min-impact", 0, "only results with at least this impact")
	cmd.Flags().StringVar(&opts.Control, "control", "", "only controls matching this glob pattern")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func showReport(cmd *cobra.Command, opts *ReportOptions, token string) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.ReadRun(ctx, token)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if f := buildFilter(opts); f != nil {
		results, err := st.ReadResults(ctx, token, f)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to filter results", err)
		}
		run.Results = results
	}

	if err := renderRun(cmd, opts.RootOptions, run); err != nil {
		return WrapExitError(ExitCommandError, "failed to render report", err)
	}
	return nil
}

// buildFilter converts report flags to a result filter.
// Returns nil when no filter flags were given.
func buildFilter(opts *ReportOptions) query.Filter {
	var filters []query.Filter
	if opts.Status != "" {
		filters = append(filters, query.StatusIs{Status: classify.Status(opts.Status)})
	}
	if opts.MinImpact > 0 {
		filters = append(filters, query.MinImpact{Impact: opts.MinImpact})
	}
	if opts.Control != "" {
		filters = append(filters, query.ControlMatch{Pattern: opts.Control})
	}

	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return query.And{Filters: filters}
	}
}
