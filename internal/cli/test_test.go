package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smokeProfileYAML = `name: smoke
version: 1.0.0
controls:
  - id: motd-01
    title: Login banner configured
    impact: 0.3
    checks:
      - resource: file
        subject: /etc/motd
        expect:
          - property: content
            op: contains
            value: Authorized use only
`

const smokeScenarioYAML = `name: cli-smoke
description: End-to-end check of the test command.
profile: ../profiles/profile.yaml
target:
  platform:
    os: linux
    family: debian
    release: "12"
  files:
    /etc/motd:
      exists: true
      content: |
        Authorized use only.
assertions:
  - type: outcome_is
    control: motd-01
    status: passed
  - type: score_at_least
    score: 100
`

// writeScenarioDir lays out profiles/ and scenarios/ the way a project
// would and returns the scenarios directory.
func writeScenarioDir(t *testing.T, scenario string) string {
	t.Helper()
	root := t.TempDir()
	profiles := filepath.Join(root, "profiles")
	scenarios := filepath.Join(root, "scenarios")
	require.NoError(t, os.Mkdir(profiles, 0o755))
	require.NoError(t, os.Mkdir(scenarios, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "profile.yaml"), []byte(smokeProfileYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "smoke.yaml"), []byte(scenario), 0o644))
	return scenarios
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := writeScenarioDir(t, smokeScenarioYAML)

	out, err := runCommand(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  cli-smoke")
	assert.Contains(t, out, "1 scenario(s), 0 failed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	failing := smokeScenarioYAML
	failing = replaceOnce(t, failing, "status: passed", "status: failed")
	failing = replaceOnce(t, failing, "score: 100", "score: 0")
	dir := writeScenarioDir(t, failing)

	out, err := runCommand(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  cli-smoke")
	assert.Contains(t, out, "1 scenario(s), 1 failed")
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeScenarioDir(t, smokeScenarioYAML)

	out, err := runCommand(t, "test", "--filter", "smoke", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  cli-smoke")

	_, err = runCommand(t, "test", "--filter", "absent", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `no scenarios match filter "absent"`)
}

func TestTestCommandEmptyDirectory(t *testing.T) {
	_, err := runCommand(t, "test", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no scenario files found")
}

func replaceOnce(t *testing.T, s, old, repl string) string {
	t.Helper()
	require.Contains(t, s, old)
	return strings.Replace(s, old, repl, 1)
}
