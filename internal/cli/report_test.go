package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/report"
	"github.com/verith/attest/internal/store"
	"github.com/verith/attest/internal/target"
)

// seedRunDB writes one finished run into a fresh database and returns
// its path.
func seedRunDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "attest.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	started := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	run := &report.Run{
		Token:           "tok-hist-1",
		ProfileName:     "baseline",
		ProfileVersion:  "1.0.0",
		ProfileChecksum: strings.Repeat("ab", 32),
		EngineVersion:   "0.3.0",
		TargetName:      "web-01",
		Platform:        target.Platform{OS: "linux", Family: "debian", Release: "12", Arch: "amd64", Hostname: "web-01"},
		StartedAt:       started,
		FinishedAt:      started.Add(2 * time.Second),
		Results: []report.Result{
			{ID: strings.Repeat("11", 32), ControlID: "ssh-01", Title: "SSH hardened", Status: classify.StatusPassed, Impact: 0.8, Severity: "high", Seq: 1},
			{ID: strings.Repeat("22", 32), ControlID: "tel-02", Title: "Telnet absent", Status: classify.StatusFailed, Impact: 0.9, Severity: "critical", Seq: 2, Message: "package telnetd is installed"},
		},
		Stats: report.Stats{Passed: 1, Failed: 1, Total: 2, Score: 50},
	}
	require.NoError(t, st.WriteRunAtomic(context.Background(), run))
	return dbPath
}

func TestReportCommand(t *testing.T) {
	dbPath := seedRunDB(t)

	out, err := runCommand(t, "report", "--db", dbPath, "tok-hist-1")
	require.NoError(t, err)

	assert.Contains(t, out, "Profile:  baseline v1.0.0")
	assert.Contains(t, out, "[+] ssh-01")
	assert.Contains(t, out, "[x] tel-02")
	assert.Contains(t, out, "Score:  50.0%")
}

func TestReportCommandFiltered(t *testing.T) {
	dbPath := seedRunDB(t)

	out, err := runCommand(t, "report", "--db", dbPath, "--status", "failed", "tok-hist-1")
	require.NoError(t, err)

	assert.Contains(t, out, "tel-02")
	assert.NotContains(t, out, "ssh-01")
	// Stats describe the whole run even when results are filtered.
	assert.Contains(t, out, "Passed: 1  Failed: 1")
}

func TestReportCommandUnknownToken(t *testing.T) {
	dbPath := seedRunDB(t)

	_, err := runCommand(t, "report", "--db", dbPath, "tok-missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}

func TestReportCommandRequiresDatabaseFlag(t *testing.T) {
	_, err := runCommand(t, "report", "tok-hist-1")
	require.Error(t, err)
}

func TestRunsCommand(t *testing.T) {
	dbPath := seedRunDB(t)

	out, err := runCommand(t, "runs", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "TOKEN")
	assert.Contains(t, out, "tok-hist-1")
	assert.Contains(t, out, "baseline 1.0.0")
	assert.Contains(t, out, "2026-02-10T08:00:00Z")
	assert.Contains(t, out, "50.0%")
}

func TestRunsCommandEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "attest.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCommand(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestRunsCommandJSON(t *testing.T) {
	dbPath := seedRunDB(t)

	out, err := runCommand(t, "--format", "json", "runs", "--db", dbPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	rows, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tok-hist-1", row["token"])
}
