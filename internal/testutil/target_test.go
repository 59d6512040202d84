package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verith/attest/internal/target"
)

func TestFakeTargetZeroStates(t *testing.T) {
	tgt := NewFakeTarget()
	ctx := context.Background()

	file, err := tgt.File(ctx, "/etc/nope")
	require.NoError(t, err)
	assert.False(t, file.Exists)

	pkg, err := tgt.Package(ctx, "telnetd")
	require.NoError(t, err)
	assert.False(t, pkg.Installed)

	port, err := tgt.Port(ctx, 8080)
	require.NoError(t, err)
	assert.False(t, port.Listening)
}

func TestFakeTargetUnstubbedCommand(t *testing.T) {
	tgt := NewFakeTarget()

	_, err := tgt.RunCommand(context.Background(), "uname -r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `command not stubbed: "uname -r"`)
}

func TestFakeTargetErrorInjection(t *testing.T) {
	tgt := NewFakeTarget()
	tgt.Files["/etc/shadow"] = target.FileState{Exists: true, Mode: "0640"}
	tgt.Errors["file /etc/shadow"] = errors.New("permission denied")

	_, err := tgt.File(context.Background(), "/etc/shadow")
	assert.EqualError(t, err, "permission denied")

	// Other subjects of the same resource are unaffected.
	_, err = tgt.File(context.Background(), "/etc/passwd")
	assert.NoError(t, err)
}

func TestFakeTargetRecordsQueries(t *testing.T) {
	tgt := NewFakeTarget()
	tgt.Commands["id -u"] = target.CommandResult{Stdout: "0\n"}
	ctx := context.Background()

	_, _ = tgt.File(ctx, "/etc/motd")
	_, _ = tgt.Port(ctx, 22)
	_, _ = tgt.RunCommand(ctx, "id -u")

	assert.Equal(t, []string{"file /etc/motd", "port 22", "command id -u"}, tgt.Queries())
}
