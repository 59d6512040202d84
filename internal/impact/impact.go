package impact

import (
	"fmt"
	"regexp"
	"time"

	"github.com/verith/attest/internal/profile"
	"github.com/verith/attest/internal/target"
)

// Severity bands derived from effective impact. The thresholds follow
// the common compliance convention: 0 is informational, 0.9+ critical.
const (
	SeverityNone     = "none"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Severity maps an impact weight to its severity band.
func Severity(impact float64) string {
	switch {
	case impact <= 0:
		return SeverityNone
	case impact < 0.4:
		return SeverityLow
	case impact < 0.7:
		return SeverityMedium
	case impact < 0.9:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Resolver computes the effective impact of a control and answers waiver
// lookups. Safe for sequential use; the engine resolves impacts from its
// single run loop.
type Resolver struct {
	waivers map[string]Waiver
	now     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWaivers supplies the waiver set loaded from a waiver file.
func WithWaivers(waivers map[string]Waiver) Option {
	return func(r *Resolver) {
		r.waivers = waivers
	}
}

// WithNow overrides the time source. Used by tests and the harness to
// make waiver expiry deterministic.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		waivers: map[string]Waiver{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Effective computes the impact weight of a control on the given
// platform. Impact rules are checked in declaration order; the first
// matching rule overrides the base impact. A rule whose condition cannot
// be evaluated (unknown fact, bad regexp) is skipped - a malformed
// override must not zero out or inflate a control silently.
func (r *Resolver) Effective(ctl *profile.Control, plat target.Platform) float64 {
	for _, rule := range ctl.ImpactRules {
		match, err := EvalCondition(rule.When, plat)
		if err != nil {
			continue
		}
		if match {
			return rule.Impact
		}
	}
	return ctl.Impact
}

// ActiveWaiver returns the waiver covering a control, if one exists and
// has not expired.
func (r *Resolver) ActiveWaiver(controlID string) (Waiver, bool) {
	w, ok := r.waivers[controlID]
	if !ok {
		return Waiver{}, false
	}
	if !w.ExpirationDate.IsZero() && r.now().After(w.ExpirationDate) {
		return Waiver{}, false
	}
	return w, true
}

// EvalCondition evaluates a profile condition against platform facts.
// Returns an error for unknown facts, unsupported operators, or invalid
// match patterns; callers decide whether that error skips a control
// (only_if) or just one impact rule.
func EvalCondition(cond profile.Condition, plat target.Platform) (bool, error) {
	actual, ok := plat.Fact(cond.Fact)
	if !ok {
		return false, fmt.Errorf("unknown platform fact %q", cond.Fact)
	}

	switch cond.Op {
	case profile.OpEqual:
		return actual == conditionString(cond.Value), nil

	case profile.OpNotEqual:
		return actual != conditionString(cond.Value), nil

	case profile.OpMatch:
		re, err := regexp.Compile(conditionString(cond.Value))
		if err != nil {
			return false, fmt.Errorf("invalid pattern for fact %q: %w", cond.Fact, err)
		}
		return re.MatchString(actual), nil

	case profile.OpIn:
		list, ok := cond.Value.([]any)
		if !ok {
			return false, fmt.Errorf("op %q requires a list value, got %T", cond.Op, cond.Value)
		}
		for _, item := range list {
			if actual == conditionString(item) {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unsupported condition operator %q", cond.Op)
	}
}

// conditionString renders a condition value for comparison against a
// platform fact (facts are always strings).
func conditionString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
