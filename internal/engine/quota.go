package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/verith/attest/internal/target"
)

// QuotaExceededError is returned by a quotaTarget once a control has
// issued more target queries than its budget allows.
//
// The runtime surfaces it as an anomaly, so the control classifies as
// Profile Error rather than aborting the whole run.
type QuotaExceededError struct {
	ControlID string
	Limit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("control %s exceeded target query quota (%d queries)", e.ControlID, e.Limit)
}

// IsQuotaError reports whether err is (or wraps) a QuotaExceededError.
func IsQuotaError(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// quotaTarget decorates a Target with a per-control query budget.
//
// Each resource query (file, package, service, port, command) counts
// against the budget; Platform and Name do not, since the engine reads
// the platform once per run, not per control. This caps runaway
// controls that hammer the target with command checks.
type quotaTarget struct {
	inner     target.Target
	controlID string
	limit     int
	used      int
}

func newQuotaTarget(inner target.Target, controlID string, limit int) *quotaTarget {
	return &quotaTarget{inner: inner, controlID: controlID, limit: limit}
}

func (q *quotaTarget) charge() error {
	q.used++
	if q.limit > 0 && q.used > q.limit {
		return &QuotaExceededError{ControlID: q.controlID, Limit: q.limit}
	}
	return nil
}

func (q *quotaTarget) Name() string {
	return q.inner.Name()
}

func (q *quotaTarget) Platform(ctx context.Context) (target.Platform, error) {
	return q.inner.Platform(ctx)
}

func (q *quotaTarget) File(ctx context.Context, path string) (target.FileState, error) {
	if err := q.charge(); err != nil {
		return target.FileState{}, err
	}
	return q.inner.File(ctx, path)
}

func (q *quotaTarget) Package(ctx context.Context, name string) (target.PackageState, error) {
	if err := q.charge(); err != nil {
		return target.PackageState{}, err
	}
	return q.inner.Package(ctx, name)
}

func (q *quotaTarget) Service(ctx context.Context, name string) (target.ServiceState, error) {
	if err := q.charge(); err != nil {
		return target.ServiceState{}, err
	}
	return q.inner.Service(ctx, name)
}

func (q *quotaTarget) Port(ctx context.Context, port int) (target.PortState, error) {
	if err := q.charge(); err != nil {
		return target.PortState{}, err
	}
	return q.inner.Port(ctx, port)
}

func (q *quotaTarget) RunCommand(ctx context.Context, command string) (target.CommandResult, error) {
	if err := q.charge(); err != nil {
		return target.CommandResult{}, err
	}
	return q.inner.RunCommand(ctx, command)
}
