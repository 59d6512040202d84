package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verith/attest/internal/engine"
	"github.com/verith/attest/internal/store"
	"github.com/verith/attest/internal/target"
	"github.com/verith/attest/internal/testutil"
)

const execProfileYAML = `name: cli-baseline
version: 1.0.0
supports:
  - os: linux
inputs:
  - name: max_sessions
    type: int
    default: 10
controls:
  - id: ssh-01
    title: SSH config permissions
    impact: 0.8
    checks:
      - resource: file
        subject: /etc/ssh/sshd_config
        expect:
          - property: mode
            op: eq
            value: "0600"
  - id: ssh-02
    title: Session limit configured
    impact: 0.5
    checks:
      - resource: command
        subject: sshd -T | grep maxsessions
        expect:
          - property: stdout
            op: eq
            value: "${input.max_sessions}"
`

func writeExecProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baseline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(execProfileYAML), 0o644))
	return path
}

func compliantTarget() *testutil.FakeTarget {
	tgt := testutil.NewFakeTarget()
	tgt.TargetName = "web-01"
	tgt.Files["/etc/ssh/sshd_config"] = target.FileState{Exists: true, Mode: "0600"}
	tgt.Commands["sshd -T | grep maxsessions"] = target.CommandResult{Stdout: "10\n"}
	return tgt
}

func newExecOptions(tgt target.Target) *ExecOptions {
	return &ExecOptions{
		RootOptions:    &RootOptions{Format: "text"},
		Timeout:        engine.DefaultControlTimeout,
		MaxQueries:     engine.DefaultMaxQueries,
		TokenGenerator: engine.NewFixedGenerator("tok-cli-1"),
		Target:         tgt,
	}
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestParseInputFlags(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, nil, false},
		{"single pair", []string{"max_age=90"}, map[string]string{"max_age": "90"}, false},
		{"value with equals", []string{"banner=a=b"}, map[string]string{"banner": "a=b"}, false},
		{"last wins", []string{"x=1", "x=2"}, map[string]string{"x": "2"}, false},
		{"missing separator", []string{"oops"}, nil, true},
		{"empty name", []string{"=5"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInputFlags(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecProfileCleanRun(t *testing.T) {
	cmd, out := newTestCommand()
	opts := newExecOptions(compliantTarget())

	err := execProfile(cmd, opts, writeExecProfile(t))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "cli-baseline")
	assert.Contains(t, out.String(), "Score:  100.0%")
}

func TestExecProfileComplianceFailure(t *testing.T) {
	tgt := compliantTarget()
	tgt.Files["/etc/ssh/sshd_config"] = target.FileState{Exists: true, Mode: "0644"}

	cmd, out := newTestCommand()
	opts := newExecOptions(tgt)

	err := execProfile(cmd, opts, writeExecProfile(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 control(s) failed, 0 errored", err.Error())

	// The report still renders before the failure exit.
	assert.Contains(t, out.String(), "[x] ssh-01")
}

func TestExecProfileJSONFormat(t *testing.T) {
	cmd, out := newTestCommand()
	opts := newExecOptions(compliantTarget())
	opts.Format = "json"

	require.NoError(t, execProfile(cmd, opts, writeExecProfile(t)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "tok-cli-1", doc["token"])
}

func TestExecProfileInputOverride(t *testing.T) {
	cmd, _ := newTestCommand()
	opts := newExecOptions(compliantTarget())
	opts.Inputs = []string{"max_sessions=5"}

	err := execProfile(cmd, opts, writeExecProfile(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestExecProfileBadInputFlag(t *testing.T) {
	cmd, _ := newTestCommand()
	opts := newExecOptions(compliantTarget())
	opts.Inputs = []string{"no-separator"}

	err := execProfile(cmd, opts, writeExecProfile(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --input")
}

func TestExecProfileMissingProfile(t *testing.T) {
	cmd, _ := newTestCommand()
	opts := newExecOptions(compliantTarget())

	err := execProfile(cmd, opts, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecProfileWaiverFile(t *testing.T) {
	tgt := compliantTarget()
	tgt.Files["/etc/ssh/sshd_config"] = target.FileState{Exists: true, Mode: "0644"}

	waiverPath := filepath.Join(t.TempDir(), "waivers.yaml")
	waivers := "ssh-01:\n  justification: accepted risk until Q3 rollout\n"
	require.NoError(t, os.WriteFile(waiverPath, []byte(waivers), 0o644))

	cmd, out := newTestCommand()
	opts := newExecOptions(tgt)
	opts.WaiverFile = waiverPath

	// The only failing control is waived, so the run exits clean.
	require.NoError(t, execProfile(cmd, opts, writeExecProfile(t)))
	assert.Contains(t, out.String(), "waived: accepted risk until Q3 rollout")
}

func TestExecProfilePersistsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "attest.db")

	cmd, _ := newTestCommand()
	opts := newExecOptions(compliantTarget())
	opts.Database = dbPath

	require.NoError(t, execProfile(cmd, opts, writeExecProfile(t)))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "tok-cli-1")
	require.NoError(t, err)
	assert.Equal(t, "cli-baseline", run.ProfileName)
	assert.Len(t, run.Results, 2)
}
