package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/verith/attest/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Long: `List run history from the database: token, profile, target,
start time, and score.

Example:
  attest runs --db ./attest.db
  attest runs --db ./attest.db --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 = no limit)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func listRuns(cmd *cobra.Command, opts *RunsOptions) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	summaries, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tPROFILE\tTARGET\tSTARTED\tPASSED\tFAILED\tSCORE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%d\t%d\t%.1f%%\n",
			s.Token,
			s.ProfileName, s.ProfileVersion,
			s.TargetName,
			s.StartedAt.UTC().Format(time.RFC3339),
			s.Stats.Passed,
			s.Stats.Failed,
			s.Stats.Score,
		)
	}
	return w.Flush()
}
