package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/verith/attest/internal/profile"
	"github.com/verith/attest/internal/report"
)

// RunWithGolden executes a scenario and compares its report against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// The report is serialized with canonical JSON so key order and number
// formatting never drift between runs. To regenerate golden files:
//
//	go test ./internal/harness -update
//
// Returns an error if execution fails; assertion mismatches and golden
// diffs fail t directly.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	for _, msg := range result.Errors {
		t.Error(msg)
	}

	return AssertGolden(t, scenario.Name, result.Report)
}

// AssertGolden compares a run report against a golden file without
// re-executing the scenario.
func AssertGolden(t *testing.T, name string, run *report.Run) error {
	t.Helper()

	canonical, err := canonicalReport(run)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, canonical)

	return nil
}

// canonicalReport renders a run as canonical JSON. The report is
// round-tripped through encoding/json first so that struct tags decide
// field names and omissions, then re-marshaled canonically for stable
// key order.
func canonicalReport(run *report.Run) ([]byte, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	return profile.MarshalCanonical(obj)
}
