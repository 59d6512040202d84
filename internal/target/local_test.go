package target

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOSRelease(t *testing.T) {
	data := []byte(`# comment line
NAME="Debian GNU/Linux"
ID=debian
VERSION_ID="12"
PRETTY_NAME='Debian GNU/Linux 12 (bookworm)'

MALFORMED LINE
`)

	fields := parseOSRelease(data)
	assert.Equal(t, "Debian GNU/Linux", fields["NAME"])
	assert.Equal(t, "debian", fields["ID"])
	assert.Equal(t, "12", fields["VERSION_ID"])
	assert.Equal(t, "Debian GNU/Linux 12 (bookworm)", fields["PRETTY_NAME"])
	assert.NotContains(t, fields, "MALFORMED LINE")
}

func TestOSFamily(t *testing.T) {
	tests := []struct {
		id       string
		idLike   string
		expected string
	}{
		{"debian", "", "debian"},
		{"ubuntu", "debian", "debian"},
		{"raspbian", "debian", "debian"},
		{"fedora", "", "rhel"},
		{"rocky", "rhel centos fedora", "rhel"},
		{"alpine", "", "alpine"},
		{"arch", "", "arch"},
		{"opensuse", "suse", "suse"},
		// Unknown ID with a recognized ID_LIKE falls through to the alias.
		{"linuxmint", "ubuntu debian", "debian"},
		// Unknown everything: the raw ID is the family.
		{"gentoo", "", "gentoo"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, osFamily(tt.id, tt.idLike))
		})
	}
}

func TestParseSSOutput(t *testing.T) {
	out := `tcp   LISTEN 0      128          0.0.0.0:22        0.0.0.0:*    users:(("sshd",pid=714,fd=3))
tcp   LISTEN 0      511        127.0.0.1:6379      0.0.0.0:*
udp   UNCONN 0      0            0.0.0.0:68        0.0.0.0:*
`

	t.Run("listening with process", func(t *testing.T) {
		state := parseSSOutput(out, 22)
		assert.True(t, state.Listening)
		assert.Equal(t, "tcp", state.Protocol)
		assert.Equal(t, "sshd", state.Process)
	})

	t.Run("listening without process column", func(t *testing.T) {
		state := parseSSOutput(out, 6379)
		assert.True(t, state.Listening)
		assert.Equal(t, "tcp", state.Protocol)
		assert.Empty(t, state.Process)
	})

	t.Run("not listening", func(t *testing.T) {
		state := parseSSOutput(out, 8080)
		assert.False(t, state.Listening)
	})

	t.Run("no partial port match", func(t *testing.T) {
		// Port 2 must not match the :22 socket.
		state := parseSSOutput(out, 2)
		assert.False(t, state.Listening)
	})
}

func TestParseSSProcess(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		expected string
	}{
		{"normal", `users:(("sshd",pid=714,fd=3))`, "sshd"},
		{"no process info", `0.0.0.0:*`, ""},
		{"unterminated", `users:(("sshd`, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseSSProcess(tt.field))
		})
	}
}

func TestRunCommandExitStatus(t *testing.T) {
	res, err := NewLocal().RunCommand(context.Background(), "echo out; echo err >&2; exit 3")
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitStatus)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunCommandDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewLocal().RunCommand(ctx, "sleep 5; echo done")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// WaitDelay bounds the wait on orphaned children holding the output
	// pipes; the call must return well before the sleep finishes.
	assert.Less(t, time.Since(start), 3*time.Second)
}
