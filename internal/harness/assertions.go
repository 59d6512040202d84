package harness

import (
	"fmt"
	"strings"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/report"
)

// AssertionError describes one failed assertion with enough context to
// debug it without rerunning the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Results  []report.Result
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual:   %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nResults:\n")
	for _, res := range e.Results {
		fmt.Fprintf(&buf, "  [%s] %s", res.Status, res.ControlID)
		if res.Message != "" {
			fmt.Fprintf(&buf, " (%s)", res.Message)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the run and
// returns the failure messages. All assertions are evaluated (no
// fail-fast) so one run surfaces every mismatch.
func EvaluateAssertions(run *report.Run, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(run, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(run *report.Run, a Assertion) error {
	switch a.Type {
	case AssertOutcomeIs:
		return assertOutcomeIs(run, a)
	case AssertStatusCount:
		return assertStatusCount(run, a)
	case AssertScoreAtLeast:
		return assertScoreAtLeast(run, a)
	case AssertMessageContains:
		return assertMessageContains(run, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertOutcomeIs(run *report.Run, a Assertion) error {
	res := run.Result(a.Control)
	if res == nil {
		return &AssertionError{
			Type:     AssertOutcomeIs,
			Expected: fmt.Sprintf("control %s with status %s", a.Control, a.Status),
			Actual:   "control not present in report",
			Results:  run.Results,
		}
	}
	if res.Status != classify.Status(a.Status) {
		return &AssertionError{
			Type:     AssertOutcomeIs,
			Expected: fmt.Sprintf("control %s classified %s", a.Control, a.Status),
			Actual:   fmt.Sprintf("classified %s", res.Status),
			Results:  run.Results,
		}
	}
	return nil
}

func assertStatusCount(run *report.Run, a Assertion) error {
	count := run.CountByStatus(classify.Status(a.Status))
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStatusCount,
			Expected: fmt.Sprintf("%d results with status %s", a.Count, a.Status),
			Actual:   fmt.Sprintf("%d results", count),
			Results:  run.Results,
		}
	}
	return nil
}

func assertScoreAtLeast(run *report.Run, a Assertion) error {
	if run.Stats.Score < a.Score {
		return &AssertionError{
			Type:     AssertScoreAtLeast,
			Expected: fmt.Sprintf("score >= %.1f", a.Score),
			Actual:   fmt.Sprintf("score %.1f", run.Stats.Score),
			Results:  run.Results,
		}
	}
	return nil
}

func assertMessageContains(run *report.Run, a Assertion) error {
	res := run.Result(a.Control)
	if res == nil {
		return &AssertionError{
			Type:     AssertMessageContains,
			Expected: fmt.Sprintf("control %s with message containing %q", a.Control, a.Substring),
			Actual:   "control not present in report",
			Results:  run.Results,
		}
	}
	if !strings.Contains(res.Message, a.Substring) {
		return &AssertionError{
			Type:     AssertMessageContains,
			Expected: fmt.Sprintf("message containing %q", a.Substring),
			Actual:   fmt.Sprintf("message %q", res.Message),
			Results:  run.Results,
		}
	}
	return nil
}
