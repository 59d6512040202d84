package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verith/attest/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every conformance scenario found under the directory. Each
scenario executes its profile against a fixture target through the
real engine and checks assertions on the classified report.

Example:
  attest test ./scenarios
  attest test --filter ssh ./scenarios`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only scenarios whose name contains this substring")

	return cmd
}

// scenarioOutcome is one scenario's result in the JSON payload.
type scenarioOutcome struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

func runScenarios(cmd *cobra.Command, opts *TestOptions, dir string) error {
	files, err := harness.FindScenarioFiles(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to scan scenarios", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenario files found in %s", dir))
	}

	var (
		outcomes []scenarioOutcome
		failed   int
	)
	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		if opts.Filter != "" && !strings.Contains(scenario.Name, opts.Filter) {
			continue
		}

		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("scenario %s failed to execute", scenario.Name), err)
		}

		outcome := scenarioOutcome{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
		outcomes = append(outcomes, outcome)
		if !result.Pass {
			failed++
		}

		if opts.Format != "json" {
			mark := "PASS"
			if !result.Pass {
				mark = "FAIL"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", mark, scenario.Name)
			for _, msg := range result.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", indent(msg, "      "))
			}
		}
	}

	if len(outcomes) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenarios match filter %q", opts.Filter))
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		if err := formatter.Success(outcomes); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode results", err)
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d scenario(s), %d failed\n", len(outcomes), failed)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

// indent continues a multi-line message at the given indentation.
func indent(msg, prefix string) string {
	return strings.ReplaceAll(strings.TrimRight(msg, "\n"), "\n", "\n"+prefix)
}
