package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfile_FullProfile(t *testing.T) {
	path := writeProfile(t, `
profile: {
	binary_prefix: "rattler"
	logs_prefix:   "rattler-logs"
	binary:        "rattler"
	test_task:     "test-wheels"
}
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "rattler", p.BinaryPrefix)
	assert.Equal(t, "rattler-logs", p.LogsPrefix)
	assert.Equal(t, "rattler", p.Binary)
	assert.Equal(t, "test-wheels", p.TestTask)
}

func TestLoadProfile_PartialOverlayKeepsDefaults(t *testing.T) {
	path := writeProfile(t, `
profile: {
	test_task: "test-extra-wheels"
}
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "test-extra-wheels", p.TestTask)

	// Unset fields keep their stock values.
	assert.Equal(t, "pixi", p.BinaryPrefix)
	assert.Equal(t, "pixi", p.Binary)
	assert.Equal(t, "wheel-logs", p.LogsPrefix)
	assert.NotEmpty(t, p.DevDriveScript)
}

func TestLoadProfile_LogPatterns(t *testing.T) {
	path := writeProfile(t, `
profile: {
	log_patterns: ["**/*.log", "summary.md"]
}
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"**/*.log", "summary.md"}, p.LogPatterns)
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadProfile_NoProfileField(t *testing.T) {
	path := writeProfile(t, `other: {name: "x"}`)

	_, err := LoadProfile(path)
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeBadProfile, le.Code)
}

func TestLoadProfile_InvalidCUE(t *testing.T) {
	path := writeProfile(t, `profile: { binary_prefix: }`)

	_, err := LoadProfile(path)
	assert.Error(t, err)
}

func TestLoadProfile_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.cue"), []byte(`
profile: {
	binary: "pixi-nightly"
}
`), 0o644))

	p, err := LoadProfile(dir)
	require.NoError(t, err)
	assert.Equal(t, "pixi-nightly", p.Binary)
}
