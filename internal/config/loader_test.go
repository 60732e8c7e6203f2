package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points discovery at an empty home and clears overrides.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg-config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "xdg-state"))
	t.Setenv(EnvConfigPath, "")
	for _, key := range []string{EnvCommand, EnvUpdateInterval, EnvTimeout} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, t.TempDir(), `
status_line:
  command: ["my-renderer", "--compact"]
  update_interval_ms: 500
  timeout_ms: 250
log:
  level: debug
  format: text
history:
  enabled: true
  path: /tmp/statusline-test/history.db
  retention: 48h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"my-renderer", "--compact"}, cfg.StatusLine.Command)
	assert.Equal(t, 500*time.Millisecond, cfg.StatusLine.UpdateInterval())
	assert.Equal(t, 250*time.Millisecond, cfg.StatusLine.Timeout())
	assert.Equal(t, 2*time.Second, cfg.StatusLine.BranchTimeout(), "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 48*time.Hour, cfg.History.Retention)
	assert.Equal(t, path, cfg.SourcePath)
	assert.True(t, cfg.StatusLine.Enabled())
}

func TestLoad_DirectoryPath(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "status_line:\n  command: [renderer]\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"renderer"}, cfg.StatusLine.Command)
}

func TestLoad_NoConfigUsesDefaults(t *testing.T) {
	home := isolateEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.StatusLine.Enabled())
	assert.Empty(t, cfg.SourcePath)
	assert.Equal(t, filepath.Join(home, "xdg-state", "statusline", "history.db"), cfg.History.Path)
}

func TestLoad_DiscoversXDGConfig(t *testing.T) {
	home := isolateEnv(t)
	path := writeConfig(t, filepath.Join(home, "xdg-config", "statusline"), "status_line:\n  command: [xdg-renderer]\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.SourcePath)
	assert.Equal(t, []string{"xdg-renderer"}, cfg.StatusLine.Command)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, t.TempDir(), "status_line:\n  command: [from-file]\n")

	t.Setenv(EnvCommand, `render.sh --format "{model} @ {branch}"`)
	t.Setenv(EnvUpdateInterval, "1500")
	t.Setenv(EnvTimeout, "75")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"render.sh", "--format", "{model} @ {branch}"}, cfg.StatusLine.Command)
	assert.Equal(t, 1500*time.Millisecond, cfg.StatusLine.UpdateInterval())
	assert.Equal(t, 75*time.Millisecond, cfg.StatusLine.Timeout())
}

func TestLoad_EmptyEnvCommandDisables(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, t.TempDir(), "status_line:\n  command: [from-file]\n")
	t.Setenv(EnvCommand, "   ")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.StatusLine.Enabled())
}

func TestLoad_BadEnvInterval(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvUpdateInterval, "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvUpdateInterval)
}

func TestLoad_InterpolatesEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MY_RENDERER", "/opt/bin/render")
	path := writeConfig(t, t.TempDir(), "status_line:\n  command: [\"${MY_RENDERER}\", \"${NOT_SET_ANYWHERE}\"]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/bin/render", "${NOT_SET_ANYWHERE}"}, cfg.StatusLine.Command)
}

func TestLoad_APITokensFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STATUSLINE_TEST_TOKEN", "s3cret")
	path := writeConfig(t, t.TempDir(), "api:\n  enabled: true\n  tokens:\n    - token: ${STATUSLINE_TEST_TOKEN}\n      scopes: [\"line:ro\", \"session:rw\"]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.API.Tokens, 1)
	assert.Equal(t, "s3cret", cfg.API.Tokens[0].Token)
	assert.Equal(t, []string{"line:ro", "session:rw"}, cfg.API.Tokens[0].Scopes)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero timeout", "status_line:\n  command: [r]\n  timeout_ms: 0\n", "timeout_ms"},
		{"negative interval", "status_line:\n  update_interval_ms: -1\n", "update_interval_ms"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
		{"api without listen", "api:\n  enabled: true\n  listen: \"\"\n", "api.listen"},
		{"blank executable", "status_line:\n  command: [\"  \"]\n", "command[0]"},
		{"token without scopes", "api:\n  tokens:\n    - token: abc\n", "api.tokens[0].scopes"},
		{"empty token", "api:\n  tokens:\n    - token: \"\"\n      scopes: [\"*\"]\n", "api.tokens[0].token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolateEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestDiscover_EnvPathMissing(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Discover()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoConfig)
}
