package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate profiles without executing them",
		Long: `Compile and validate profile files, reporting every schema and
semantic error found. The path may be a single profile or a directory
scanned recursively.

Example:
  attest validate ./profiles
  attest validate --format json ./baseline.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateProfiles(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

// validationSummary is the JSON payload for validate output.
type validationSummary struct {
	Files    int      `json:"files"`
	Profiles int      `json:"profiles"`
	Errors   []string `json:"errors,omitempty"`
}

func validateProfiles(cmd *cobra.Command, rootOpts *RootOptions, path string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	result, loadErrs := LoadProfiles(path, LoadModeCollectAll)
	if result == nil {
		err := loadErrs[0]
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "validation aborted", err)
	}

	summary := validationSummary{
		Files:    result.FileCount,
		Profiles: len(result.Profiles),
	}
	for _, err := range loadErrs {
		summary.Errors = append(summary.Errors, err.Error())
	}

	if len(summary.Errors) > 0 {
		if rootOpts.Format == "json" {
			_ = formatter.Error(ErrCodeCompileFailed, "validation failed", summary)
		} else {
			for _, msg := range summary.Errors {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d file(s) invalid\n",
				len(summary.Errors), summary.Files)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid profile file(s)", len(summary.Errors)))
	}

	if rootOpts.Format == "json" {
		return formatter.Success(summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d profile(s) valid (%d file(s))\n",
		summary.Profiles, summary.Files)
	return nil
}

// errorCode extracts the E-code from a LoadError, defaulting to E001.
func errorCode(err error) string {
	if le, ok := err.(*LoadError); ok {
		return le.Code
	}
	return ErrCodeGeneric
}
