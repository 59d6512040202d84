package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loaderProfileYAML = `name: loader-sample
version: 1.0.0
controls:
  - id: ssh-01
    title: SSH daemon config is root-owned
    impact: 0.7
    checks:
      - resource: file
        subject: /etc/ssh/sshd_config
        expect:
          - property: owner
            op: eq
            value: root
`

const brokenProfileYAML = `name: Broken Name
version: 1.0.0
controls: []
`

func writeProfileFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfilesSingleFile(t *testing.T) {
	path := writeProfileFile(t, t.TempDir(), "sample.yaml", loaderProfileYAML)

	result, errs := LoadProfiles(path, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Profiles, 1)
	assert.Equal(t, "loader-sample", result.Profiles[0].Name)
}

func TestLoadProfilesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeProfileFile(t, dir, "a.yaml", loaderProfileYAML)
	writeProfileFile(t, dir, "b.yml", loaderProfileYAML)
	writeProfileFile(t, dir, "notes.txt", "not a profile")

	result, errs := LoadProfiles(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Profiles, 2)
}

func TestLoadProfilesMissingPath(t *testing.T) {
	result, errs := LoadProfiles(filepath.Join(t.TempDir(), "nope.yaml"), LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	le, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadProfilesEmptyDirectory(t *testing.T) {
	result, errs := LoadProfiles(t.TempDir(), LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	le, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadProfilesCompileFailure(t *testing.T) {
	path := writeProfileFile(t, t.TempDir(), "broken.yaml", brokenProfileYAML)

	result, errs := LoadProfiles(path, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Empty(t, result.Profiles)

	le, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeCompileFailed, le.Code)
	assert.Contains(t, le.Error(), path)
}

func TestLoadProfilesFailFastStopsEarly(t *testing.T) {
	dir := t.TempDir()
	writeProfileFile(t, dir, "1-broken.yaml", brokenProfileYAML)
	writeProfileFile(t, dir, "2-broken.yaml", brokenProfileYAML)

	_, errs := LoadProfiles(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoadProfilesCollectAll(t *testing.T) {
	dir := t.TempDir()
	writeProfileFile(t, dir, "1-broken.yaml", brokenProfileYAML)
	writeProfileFile(t, dir, "2-good.yaml", loaderProfileYAML)
	writeProfileFile(t, dir, "3-broken.yaml", brokenProfileYAML)

	result, errs := LoadProfiles(dir, LoadModeCollectAll)
	assert.Len(t, errs, 2)
	assert.Equal(t, 3, result.FileCount)
	require.Len(t, result.Profiles, 1)
	assert.Equal(t, "loader-sample", result.Profiles[0].Name)
}

func TestFindProfileFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeProfileFile(t, dir, "root.yaml", loaderProfileYAML)
	writeProfileFile(t, sub, "deep.yml", loaderProfileYAML)
	writeProfileFile(t, dir, "README.md", "docs")

	files, err := FindProfileFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files, filepath.Join(sub, "deep.yml"))
	assert.Contains(t, files, filepath.Join(dir, "root.yaml"))
}
