package runtime

import "time"

// SensitiveMask replaces expected and actual values of sensitive
// assertions. Applied inside the runtime so the real value never reaches
// a report, the store, or a log line.
const SensitiveMask = "*** sensitive ***"

// Assertion is one evaluated expectation: an expected-vs-actual pair
// with the pass/fail verdict.
type Assertion struct {
	Description string `json:"description"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Passed      bool   `json:"passed"`
	Sensitive   bool   `json:"sensitive,omitempty"`
}

// Anomaly records an execution failure that is not an assertion result:
// an adapter error, a panic, a quota breach, or an assertion-free
// execution path. A control with an anomaly classifies as Profile Error.
type Anomaly struct {
	Message string `json:"message"`
}

// Result is the raw outcome of executing one control, before impact
// resolution and classification.
//
// Exactly one of these shapes holds:
//   - Skipped with SkipMessage (only_if failed, platform unsupported, or waived)
//   - Anomaly set (execution failed before producing a meaningful verdict)
//   - One or more Assertions (the control ran to completion)
type Result struct {
	ControlID   string        `json:"control_id"`
	Title       string        `json:"title"`
	Skipped     bool          `json:"skipped,omitempty"`
	SkipMessage string        `json:"skip_message,omitempty"`
	Assertions  []Assertion   `json:"assertions,omitempty"`
	Anomaly     *Anomaly      `json:"anomaly,omitempty"`
	Duration    time.Duration `json:"-"`
}

// Failed reports whether any assertion failed.
func (r *Result) Failed() bool {
	for _, a := range r.Assertions {
		if !a.Passed {
			return true
		}
	}
	return false
}

// FirstFailure returns the description of the first failed assertion,
// or "" if none failed. Used as the summary message on failed results.
func (r *Result) FirstFailure() string {
	for _, a := range r.Assertions {
		if !a.Passed {
			return a.Description
		}
	}
	return ""
}

// SkippedResult builds a skip outcome without executing anything.
// The engine uses this for waived controls and unsupported platforms.
func SkippedResult(controlID, title, message string) *Result {
	return &Result{
		ControlID:   controlID,
		Title:       title,
		Skipped:     true,
		SkipMessage: message,
	}
}
