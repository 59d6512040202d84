package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/verith/attest/internal/impact"
	"github.com/verith/attest/internal/profile"
	"github.com/verith/attest/internal/target"
)

// ExecuteControl runs one control against a target and captures every
// assertion, skip, and execution anomaly into a Result.
//
// This function never returns an error and never panics: adapter
// failures, panics inside matchers, and assertion-free execution paths
// all become anomalies on the Result. Every control yields exactly one
// Result - silence is not an outcome.
//
// Execution order:
//  1. only_if condition - if false, the control is Skipped and no check runs
//  2. each check in declaration order, each expectation in declaration order
//  3. the no-assertion guard - zero assertions without a skip is an anomaly
func ExecuteControl(ctx context.Context, t target.Target, p *profile.Profile, ctl *profile.Control, plat target.Platform, inputs Inputs) (result *Result) {
	start := time.Now()
	result = &Result{
		ControlID: ctl.ID,
		Title:     ctl.Title,
	}
	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			// A panic mid-control invalidates whatever was captured so far.
			result.Assertions = nil
			result.Anomaly = &Anomaly{Message: fmt.Sprintf("panic during control execution: %v", r)}
			slog.Error("control panicked", "control", ctl.ID, "panic", r)
		}
	}()

	if ctl.OnlyIf != nil {
		match, err := impact.EvalCondition(*ctl.OnlyIf, plat)
		if err != nil {
			result.Anomaly = &Anomaly{Message: fmt.Sprintf("only_if condition: %v", err)}
			return result
		}
		if !match {
			result.Skipped = true
			result.SkipMessage = ctl.OnlyIf.Reason
			if result.SkipMessage == "" {
				result.SkipMessage = fmt.Sprintf("only_if: %s %s %v is false on this platform", ctl.OnlyIf.Fact, ctl.OnlyIf.Op, ctl.OnlyIf.Value)
			}
			return result
		}
	}

	cache := newFactCache()
	for _, check := range ctl.Checks {
		if err := ctx.Err(); err != nil {
			result.Anomaly = &Anomaly{Message: fmt.Sprintf("control aborted: %v", err)}
			return result
		}

		state, err := cache.state(ctx, t, check.Resource, check.Subject)
		if err != nil {
			result.Anomaly = &Anomaly{Message: err.Error()}
			return result
		}

		for _, expect := range check.Expect {
			assertion, err := evaluateExpectation(state, check, expect, p, inputs)
			if err != nil {
				result.Anomaly = &Anomaly{Message: fmt.Sprintf("check %s %q, property %q: %v", check.Resource, check.Subject, expect.Property, err)}
				return result
			}
			result.Assertions = append(result.Assertions, assertion)
		}
	}

	if len(result.Assertions) == 0 {
		result.Anomaly = &Anomaly{Message: "control produced no assertions"}
		return result
	}

	return result
}

// evaluateExpectation resolves one expectation to an Assertion.
// Sensitive expectations (flagged directly or referencing a sensitive
// input) are masked here, before the values can escape the runtime.
func evaluateExpectation(state any, check profile.Check, expect profile.Expectation, p *profile.Profile, inputs Inputs) (Assertion, error) {
	actual, err := property(state, expect.Property)
	if err != nil {
		return Assertion{}, err
	}

	sensitive := expect.Sensitive || inputSensitive(expect.Value, p)

	expected, err := substituteInput(expect.Value, inputs)
	if err != nil {
		return Assertion{}, err
	}

	passed, err := Evaluate(expect.Op, actual, expected)
	if err != nil {
		return Assertion{}, err
	}

	assertion := Assertion{
		Description: describeExpectation(check, expect),
		Expected:    describeExpected(expect.Op, expected),
		Actual:      stringValue(actual),
		Passed:      passed,
		Sensitive:   sensitive,
	}
	if sensitive {
		assertion.Expected = SensitiveMask
		assertion.Actual = SensitiveMask
	}
	return assertion, nil
}

// describeExpectation renders a human-readable assertion description:
// "file /etc/ssh/sshd_config mode eq"
func describeExpectation(check profile.Check, expect profile.Expectation) string {
	return fmt.Sprintf("%s %s %s %s", check.Resource, check.Subject, expect.Property, expect.Op)
}

// describeExpected renders the expected side of an assertion.
// Operators carry their meaning into the rendering so a bare value is
// never ambiguous in a report ("match ^2$" vs "gte 2").
func describeExpected(op string, expected any) string {
	if expected == nil {
		return op
	}
	return fmt.Sprintf("%s %s", op, stringValue(expected))
}
