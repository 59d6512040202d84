package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/impact"
	"github.com/verith/attest/internal/profile"
	"github.com/verith/attest/internal/report"
	"github.com/verith/attest/internal/runtime"
	"github.com/verith/attest/internal/store"
	"github.com/verith/attest/internal/target"
)

const (
	// DefaultControlTimeout bounds the execution of a single control.
	// A hung command check must not stall the rest of the run.
	DefaultControlTimeout = 30 * time.Second

	// DefaultMaxQueries bounds target queries per control. Checks are
	// memoized per (resource, subject), so legitimate controls stay far
	// below this.
	DefaultMaxQueries = 100
)

// Engine executes a compiled profile against a target and produces a
// classified, scored run report.
//
// Controls execute sequentially in declaration order. Each result is
// stamped with a logical sequence number, so two runs of the same
// profile produce results in identical order.
//
// INVARIANTS:
//   - every control yields exactly one result
//   - result seq numbers are strictly increasing in declaration order
//   - sensitive values are masked before results leave the runtime
type Engine struct {
	target   target.Target
	resolver *impact.Resolver
	tokens   TokenGenerator

	store      *store.Store // nil disables persistence
	timeout    time.Duration
	maxQueries int
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore enables run persistence. Without a store the engine only
// returns the in-memory report.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithControlTimeout overrides the per-control execution deadline.
// Zero disables the deadline.
func WithControlTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithMaxQueries overrides the per-control target query budget.
// Zero disables the budget.
func WithMaxQueries(n int) Option {
	return func(e *Engine) {
		e.maxQueries = n
	}
}

// WithNow overrides the time source. Used by tests and the harness so
// report timestamps are deterministic.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine for the given target.
func New(t target.Target, resolver *impact.Resolver, tokens TokenGenerator, opts ...Option) *Engine {
	e := &Engine{
		target:     t,
		resolver:   resolver,
		tokens:     tokens,
		timeout:    DefaultControlTimeout,
		maxQueries: DefaultMaxQueries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every control of the profile against the target.
//
// An unreachable target is the only fatal condition: without platform
// facts, nothing can execute, skip, or classify correctly. Everything
// that goes wrong after that point lands on individual results as
// Profile Error outcomes instead of aborting the run.
//
// When a store is configured, the finished run is persisted atomically.
// A persistence failure returns both the computed run and the error so
// the caller can still render the report.
func (e *Engine) Execute(ctx context.Context, p *profile.Profile, inputs runtime.Inputs) (*report.Run, error) {
	checksum, err := profile.Checksum(p)
	if err != nil {
		return nil, fmt.Errorf("profile checksum: %w", err)
	}

	token := e.tokens.Generate()
	startedAt := e.now()

	plat, err := e.target.Platform(ctx)
	if err != nil {
		return nil, fmt.Errorf("target %s unreachable: %w", e.target.Name(), err)
	}

	slog.Info("run starting",
		"run", token,
		"profile", p.Name,
		"version", p.Version,
		"target", e.target.Name(),
		"controls", len(p.Controls))

	supported, supportMsg := platformSupported(p, plat)
	if !supported {
		slog.Warn("platform not supported by profile", "run", token, "platform", plat.OS)
	}

	clock := NewClock()
	results := make([]report.Result, 0, len(p.Controls))
	for i := range p.Controls {
		ctl := &p.Controls[i]
		seq := clock.Next()
		eff := e.resolver.Effective(ctl, plat)

		var (
			raw    *runtime.Result
			waived bool
		)
		switch {
		case !supported:
			raw = runtime.SkippedResult(ctl.ID, ctl.Title, supportMsg)

		default:
			if w, ok := e.resolver.ActiveWaiver(ctl.ID); ok {
				waived = true
				if !w.Run {
					raw = runtime.SkippedResult(ctl.ID, ctl.Title, "waived: "+w.Justification)
					break
				}
			}
			raw = e.executeControl(ctx, p, ctl, plat, inputs)
		}

		status := classify.Classify(raw, eff)
		res := report.Result{
			ID:         profile.ResultID(token, ctl.ID, string(status), seq),
			ControlID:  ctl.ID,
			Title:      ctl.Title,
			Status:     status,
			Impact:     eff,
			Severity:   impact.Severity(eff),
			Seq:        seq,
			DurationMS: raw.Duration.Milliseconds(),
			Message:    resultMessage(raw),
			Waived:     waived,
			Assertions: raw.Assertions,
		}
		report.Scrub(&res)
		results = append(results, res)

		slog.Debug("control classified",
			"run", token,
			"control", ctl.ID,
			"status", string(status),
			"severity", res.Severity,
			"duration_ms", res.DurationMS)
	}

	run := &report.Run{
		Token:           token,
		ProfileName:     p.Name,
		ProfileVersion:  p.Version,
		ProfileChecksum: checksum,
		EngineVersion:   profile.EngineVersion,
		TargetName:      e.target.Name(),
		Platform:        plat,
		StartedAt:       startedAt,
		FinishedAt:      e.now(),
		Results:         results,
		Stats:           report.ComputeStats(results),
	}

	if e.store != nil {
		if err := e.store.WriteRunAtomic(ctx, run); err != nil {
			return run, fmt.Errorf("persist run %s: %w", token, err)
		}
	}

	slog.Info("run finished",
		"run", token,
		"passed", run.Stats.Passed,
		"failed", run.Stats.Failed,
		"errored", run.Stats.Errored,
		"score", run.Stats.Score)

	return run, nil
}

// executeControl runs one control behind the query quota and the
// per-control deadline.
func (e *Engine) executeControl(ctx context.Context, p *profile.Profile, ctl *profile.Control, plat target.Platform, inputs runtime.Inputs) *runtime.Result {
	t := target.Target(e.target)
	if e.maxQueries > 0 {
		t = newQuotaTarget(e.target, ctl.ID, e.maxQueries)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	return runtime.ExecuteControl(ctx, t, p, ctl, plat, inputs)
}

// platformSupported checks the profile's supports block against the
// target platform. An empty block supports everything; otherwise any
// one entry matching is enough.
func platformSupported(p *profile.Profile, plat target.Platform) (bool, string) {
	if len(p.Supports) == 0 {
		return true, ""
	}
	for _, s := range p.Supports {
		if matchField(s.OS, plat.OS) &&
			matchField(s.Family, plat.Family) &&
			matchField(s.Release, plat.Release) {
			return true, ""
		}
	}
	return false, fmt.Sprintf("profile %s does not support platform %s/%s %s",
		p.Name, plat.OS, plat.Family, plat.Release)
}

// matchField matches a supports field against a platform fact. Empty
// patterns are wildcards; a trailing * matches any suffix ("22.*").
func matchField(pattern, actual string) bool {
	if pattern == "" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(actual, prefix)
	}
	return pattern == actual
}

// resultMessage picks the summary line for a result: the skip reason,
// the anomaly, or the first failed assertion.
func resultMessage(raw *runtime.Result) string {
	switch {
	case raw.Anomaly != nil:
		return raw.Anomaly.Message
	case raw.Skipped:
		return raw.SkipMessage
	default:
		return raw.FirstFailure()
	}
}
