// Package classify buckets raw control results into report outcomes.
package classify

import "github.com/verith/attest/internal/runtime"

// Status is the classified outcome of a control.
type Status string

const (
	// StatusPassed - every assertion passed.
	StatusPassed Status = "passed"

	// StatusFailed - at least one assertion failed.
	StatusFailed Status = "failed"

	// StatusNotReviewed - the control was skipped (only_if, waiver, or
	// unsupported platform) and made no verdict.
	StatusNotReviewed Status = "not_reviewed"

	// StatusNotApplicable - effective impact is zero; the control does
	// not affect the compliance score regardless of its assertions.
	StatusNotApplicable Status = "not_applicable"

	// StatusProfileError - execution never reached an assertion or
	// raised unexpectedly. Profile errors demand author attention: the
	// control's verdict is unknown, not merely negative.
	StatusProfileError Status = "profile_error"
)

// AllStatuses lists statuses in report ordering.
var AllStatuses = []Status{
	StatusPassed,
	StatusFailed,
	StatusNotReviewed,
	StatusNotApplicable,
	StatusProfileError,
}

// Heading returns the display form of a status.
func (s Status) Heading() string {
	switch s {
	case StatusPassed:
		return "Passed"
	case StatusFailed:
		return "Failed"
	case StatusNotReviewed:
		return "Not Reviewed"
	case StatusNotApplicable:
		return "Not Applicable"
	case StatusProfileError:
		return "Profile Error"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusNotReviewed, StatusNotApplicable, StatusProfileError:
		return true
	}
	return false
}

// Classify buckets a raw result given its effective impact.
//
// Precedence (first match wins):
//  1. anomaly            -> Profile Error
//  2. impact == 0        -> Not Applicable
//  3. skipped            -> Not Reviewed
//  4. any failed         -> Failed
//  5. otherwise          -> Passed
//
// Profile Error outranks Not Applicable: a broken control is broken even
// where it would not have counted. Not Applicable outranks Not Reviewed
// and Failed: a zero-impact control never moves the score, so its skip
// state and verdict are irrelevant.
func Classify(res *runtime.Result, effectiveImpact float64) Status {
	switch {
	case res.Anomaly != nil:
		return StatusProfileError
	case effectiveImpact == 0:
		return StatusNotApplicable
	case res.Skipped:
		return StatusNotReviewed
	case res.Failed():
		return StatusFailed
	default:
		return StatusPassed
	}
}
