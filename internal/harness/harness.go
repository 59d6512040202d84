package harness

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/verith/attest/internal/compiler"
	"github.com/verith/attest/internal/engine"
	"github.com/verith/attest/internal/impact"
	"github.com/verith/attest/internal/report"
	"github.com/verith/attest/internal/runtime"
	"github.com/verith/attest/internal/store"
)

// defaultNow pins scenario time when the scenario does not.
var defaultNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Report is the full run report, for golden comparison and
	// debugging failed assertions.
	Report *report.Run `json:"report"`

	// Errors contains assertion failure messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// Run executes a scenario end to end: compile the profile, execute it
// against the fixture target through the real engine, persist the run
// to a fresh in-memory database, and evaluate the assertions.
//
// Everything nondeterministic is pinned: the run token, the time
// source, and the fixture state. The same scenario always produces a
// byte-identical report.
func Run(scenario *Scenario) (*Result, error) {
	data, err := os.ReadFile(scenario.Profile)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := compiler.CompileProfile(scenario.Profile, data)
	if err != nil {
		return nil, fmt.Errorf("compile profile: %w", err)
	}

	inputs, err := runtime.ResolveInputs(p, scenario.Inputs)
	if err != nil {
		return nil, fmt.Errorf("resolve inputs: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	defer st.Close()

	now := scenario.Now
	if now.IsZero() {
		now = defaultNow
	}
	token := scenario.RunToken
	if token == "" {
		token = "test-run-default"
	}

	resolver := impact.NewResolver(
		impact.WithWaivers(scenario.Waivers),
		impact.WithNow(func() time.Time { return now }),
	)

	eng := engine.New(
		scenario.Target.buildTarget(),
		resolver,
		engine.NewFixedGenerator(token),
		engine.WithStore(st),
		engine.WithNow(func() time.Time { return now }),
	)

	run, err := eng.Execute(context.Background(), p, inputs)
	if err != nil {
		return nil, fmt.Errorf("execute profile: %w", err)
	}

	result := &Result{Pass: true, Report: run}
	for _, msg := range EvaluateAssertions(run, scenario.Assertions) {
		result.Errors = append(result.Errors, msg)
		result.Pass = false
	}

	return result, nil
}
