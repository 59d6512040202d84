package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/runtime"
	"github.com/verith/attest/internal/target"
)

func sampleRun() *Run {
	results := []Result{
		{
			ID: "aaa", ControlID: "ssh-01", Title: "SSH hardened",
			Status: classify.StatusPassed, Impact: 0.7, Severity: "high", Seq: 1,
			Assertions: []runtime.Assertion{
				{Description: "file /etc/ssh/sshd_config mode eq", Expected: "eq 0600", Actual: "0600", Passed: true},
			},
		},
		{
			ID: "bbb", ControlID: "pwd-02", Title: "Password aging enforced",
			Status: classify.StatusFailed, Impact: 0.5, Severity: "medium", Seq: 2,
			Message: "file /etc/login.defs content match",
			Assertions: []runtime.Assertion{
				{Description: "file /etc/login.defs content match", Expected: "match PASS_MAX_DAYS\\s+90", Actual: "PASS_MAX_DAYS 99999", Passed: false},
			},
		},
		{
			ID: "ccc", ControlID: "tel-03", Title: "Telnet absent",
			Status: classify.StatusNotReviewed, Impact: 0.9, Severity: "critical", Seq: 3,
			Message: "waived: decommission scheduled", Waived: true,
		},
	}

	run := &Run{
		Token:          "tok-123",
		ProfileName:    "baseline",
		ProfileVersion: "1.0.0",
		EngineVersion:  "0.3.0",
		TargetName:     "web-01",
		Platform:       target.Platform{OS: "linux", Family: "debian", Release: "12", Arch: "amd64", Hostname: "web-01"},
		StartedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt:     time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC),
		Results:        results,
	}
	run.Stats = ComputeStats(results)
	return run
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleRun()))
	out := buf.String()

	assert.Contains(t, out, "Profile:  baseline v1.0.0")
	assert.Contains(t, out, "Target:   web-01 (linux/debian 12)")
	assert.Contains(t, out, "Run:      tok-123")

	assert.Contains(t, out, "[+] ssh-01  SSH hardened (high)")
	assert.Contains(t, out, "[x] pwd-02  Password aging enforced (medium)")
	assert.Contains(t, out, "[-] tel-03  Telnet absent (critical, waived)")

	// Failed assertions show the expected/actual pair; passing ones don't.
	assert.Contains(t, out, "expected: match PASS_MAX_DAYS\\s+90")
	assert.Contains(t, out, "actual:   PASS_MAX_DAYS 99999")
	assert.NotContains(t, out, "eq 0600")

	assert.Contains(t, out, "waived: decommission scheduled")
	assert.Contains(t, out, "Passed: 1  Failed: 1  Not Reviewed: 1  Not Applicable: 0  Errors: 0")
	assert.Contains(t, out, "Score:  33.3%")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, sampleRun()))

	var decoded Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "tok-123", decoded.Token)
	assert.Equal(t, "baseline", decoded.ProfileName)
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, classify.StatusFailed, decoded.Results[1].Status)
	assert.True(t, decoded.Results[2].Waived)
	assert.Equal(t, 33.3, decoded.Stats.Score)
}
