package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHardenedScenarioGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/hardened.yaml")
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scenario))
}

func TestEvaluateAssertions(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/hardened.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	run := result.Report

	t.Run("passing assertions", func(t *testing.T) {
		errs := EvaluateAssertions(run, []Assertion{
			{Type: AssertOutcomeIs, Control: "ssh-01", Status: "passed"},
			{Type: AssertStatusCount, Status: "failed", Count: 0},
			{Type: AssertScoreAtLeast, Score: 99.9},
		})
		require.Empty(t, errs)
	})

	t.Run("failures carry context", func(t *testing.T) {
		errs := EvaluateAssertions(run, []Assertion{
			{Type: AssertOutcomeIs, Control: "missing-99", Status: "passed"},
			{Type: AssertScoreAtLeast, Score: 100},
			{Type: AssertMessageContains, Control: "ssh-01", Substring: "drift"},
		})
		require.Len(t, errs, 2)
		require.Contains(t, errs[0], "control not present in report")
		require.Contains(t, errs[0], "[passed] ssh-01")
		require.Contains(t, errs[1], "assertions[2]")
	})
}
