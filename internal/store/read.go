package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/query"
	"github.com/verith/attest/internal/report"
)

// ErrRunNotFound is returned when a run token has no stored row.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is a run header without its results, for listings.
type RunSummary struct {
	Token          string       `json:"token"`
	ProfileName    string       `json:"profile_name"`
	ProfileVersion string       `json:"profile_version"`
	TargetName     string       `json:"target_name"`
	StartedAt      time.Time    `json:"started_at"`
	Stats          report.Stats `json:"stats"`
}

// ReadRun loads a run header and all its results.
// Returns ErrRunNotFound if the token is unknown.
func (s *Store) ReadRun(ctx context.Context, token string) (*report.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, profile_name, profile_version, profile_checksum,
		       engine_version, target_name, platform, started_at, finished_at,
		       passed, failed, not_reviewed, not_applicable, errored, total, score
		FROM runs
		WHERE token = ?
	`, token)

	var (
		run                   report.Run
		platformJSON          string
		startedAt, finishedAt string
	)
	err := row.Scan(
		&run.Token,
		&run.ProfileName,
		&run.ProfileVersion,
		&run.ProfileChecksum,
		&run.EngineVersion,
		&run.TargetName,
		&platformJSON,
		&startedAt,
		&finishedAt,
		&run.Stats.Passed,
		&run.Stats.Failed,
		&run.Stats.NotReviewed,
		&run.Stats.NotApplicable,
		&run.Stats.Errored,
		&run.Stats.Total,
		&run.Stats.Score,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", token, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", token, err)
	}

	if err := json.Unmarshal([]byte(platformJSON), &run.Platform); err != nil {
		return nil, fmt.Errorf("read run %s: decode platform: %w", token, err)
	}
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("read run %s: started_at: %w", token, err)
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("read run %s: finished_at: %w", token, err)
	}

	run.Results, err = s.ReadResults(ctx, token, nil)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// ReadResults loads a run's results, optionally narrowed by a filter.
// Results are always ordered by execution sequence so identical queries
// return identical orderings.
func (s *Store) ReadResults(ctx context.Context, token string, f query.Filter) ([]report.Result, error) {
	fragment, params, err := query.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("read results %s: %w", token, err)
	}

	sqlQuery := `
		SELECT id, control_id, title, status, impact, severity,
		       seq, duration_ms, message, waived, assertions
		FROM results
		WHERE run_token = ?
	`
	args := []any{token}
	if fragment != "" {
		sqlQuery += " AND " + fragment
		args = append(args, params...)
	}
	sqlQuery += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("read results %s: %w", token, err)
	}
	defer rows.Close()

	var results []report.Result
	for rows.Next() {
		var (
			res            report.Result
			status         string
			waived         int
			assertionsJSON string
		)
		if err := rows.Scan(
			&res.ID,
			&res.ControlID,
			&res.Title,
			&status,
			&res.Impact,
			&res.Severity,
			&res.Seq,
			&res.DurationMS,
			&res.Message,
			&waived,
			&assertionsJSON,
		); err != nil {
			return nil, fmt.Errorf("read results %s: scan: %w", token, err)
		}

		res.Status = classify.Status(status)
		res.Waived = waived != 0
		if err := json.Unmarshal([]byte(assertionsJSON), &res.Assertions); err != nil {
			return nil, fmt.Errorf("read results %s: decode assertions for %s: %w", token, res.ControlID, err)
		}

		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read results %s: %w", token, err)
	}

	return results, nil
}

// ListRuns returns run summaries, newest first. A limit of 0 means no
// limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	sqlQuery := `
		SELECT token, profile_name, profile_version, target_name, started_at,
		       passed, failed, not_reviewed, not_applicable, errored, total, score
		FROM runs
		ORDER BY started_at DESC, token DESC
	`
	var args []any
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			sum       RunSummary
			startedAt string
		)
		if err := rows.Scan(
			&sum.Token,
			&sum.ProfileName,
			&sum.ProfileVersion,
			&sum.TargetName,
			&startedAt,
			&sum.Stats.Passed,
			&sum.Stats.Failed,
			&sum.Stats.NotReviewed,
			&sum.Stats.NotApplicable,
			&sum.Stats.Errored,
			&sum.Stats.Total,
			&sum.Stats.Score,
		); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		if sum.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("list runs: started_at for %s: %w", sum.Token, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return summaries, nil
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
