package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verith/attest/internal/report"
)

// WriteRun inserts a run header row.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - re-persisting
// the same run is silently ignored.
func (s *Store) WriteRun(ctx context.Context, run *report.Run) error {
	platformJSON, err := json.Marshal(run.Platform)
	if err != nil {
		return fmt.Errorf("write run: marshal platform: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(token, profile_name, profile_version, profile_checksum, engine_version,
		 target_name, platform, started_at, finished_at,
		 passed, failed, not_reviewed, not_applicable, errored, total, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.ProfileName,
		run.ProfileVersion,
		run.ProfileChecksum,
		run.EngineVersion,
		run.TargetName,
		string(platformJSON),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Stats.Passed,
		run.Stats.Failed,
		run.Stats.NotReviewed,
		run.Stats.NotApplicable,
		run.Stats.Errored,
		run.Stats.Total,
		run.Stats.Score,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteResult inserts one classified control result.
// Uses ON CONFLICT DO NOTHING for idempotency - both a duplicate result
// ID and a second result for the same (run, control) pair are ignored.
//
// The run referenced by RunToken must exist (foreign key constraint).
func (s *Store) WriteResult(ctx context.Context, runToken string, res report.Result) error {
	assertionsJSON, err := json.Marshal(res.Assertions)
	if err != nil {
		return fmt.Errorf("write result: marshal assertions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(id, run_token, control_id, title, status, impact, severity,
		 seq, duration_ms, message, waived, assertions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		res.ID,
		runToken,
		res.ControlID,
		res.Title,
		string(res.Status),
		res.Impact,
		res.Severity,
		res.Seq,
		res.DurationMS,
		res.Message,
		boolToInt(res.Waived),
		string(assertionsJSON),
	)
	if err != nil {
		return fmt.Errorf("write result %s: %w", res.ControlID, err)
	}

	return nil
}

// WriteRunAtomic persists a run header and all its results in a single
// transaction. Either the whole run lands or none of it - a run with
// half its results is worse than no run at all for audit purposes.
func (s *Store) WriteRunAtomic(ctx context.Context, run *report.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run atomic: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	platformJSON, err := json.Marshal(run.Platform)
	if err != nil {
		return fmt.Errorf("write run atomic: marshal platform: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(token, profile_name, profile_version, profile_checksum, engine_version,
		 target_name, platform, started_at, finished_at,
		 passed, failed, not_reviewed, not_applicable, errored, total, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.ProfileName,
		run.ProfileVersion,
		run.ProfileChecksum,
		run.EngineVersion,
		run.TargetName,
		string(platformJSON),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Stats.Passed,
		run.Stats.Failed,
		run.Stats.NotReviewed,
		run.Stats.NotApplicable,
		run.Stats.Errored,
		run.Stats.Total,
		run.Stats.Score,
	); err != nil {
		return fmt.Errorf("write run atomic: insert run: %w", err)
	}

	for _, res := range run.Results {
		assertionsJSON, err := json.Marshal(res.Assertions)
		if err != nil {
			return fmt.Errorf("write run atomic: marshal assertions for %s: %w", res.ControlID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results
			(id, run_token, control_id, title, status, impact, severity,
			 seq, duration_ms, message, waived, assertions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			res.ID,
			run.Token,
			res.ControlID,
			res.Title,
			string(res.Status),
			res.Impact,
			res.Severity,
			res.Seq,
			res.DurationMS,
			res.Message,
			boolToInt(res.Waived),
			string(assertionsJSON),
		); err != nil {
			return fmt.Errorf("write run atomic: insert result %s: %w", res.ControlID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run atomic: commit: %w", err)
	}

	return nil
}

// formatTime stores timestamps as RFC 3339 UTC strings.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
