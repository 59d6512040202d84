// Package cli implements the attest command tree: exec, validate,
// report, runs, and test. Commands return ExitError to map outcomes to
// process exit codes (0 clean, 1 compliance failure, 2 command error).
package cli
