package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytesStable(t *testing.T) {
	a := HashBytes([]byte(`{"model":"gpt"}`))
	b := HashBytes([]byte(`{"model":"gpt"}`))
	c := HashBytes([]byte(`{"model":"other"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestWriteChecksumsThenLoad(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, t.TempDir(), "status_line:\n  command: [renderer]\n")

	manifest, err := WriteChecksums(path)
	require.NoError(t, err)
	assert.Contains(t, manifest.Hashes, "config.yaml")

	info, err := os.Stat(filepath.Join(filepath.Dir(path), ChecksumFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"renderer"}, cfg.StatusLine.Command)
}

func TestLoad_RejectsTamperedConfig(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, t.TempDir(), "status_line:\n  command: [renderer]\n")
	_, err := WriteChecksums(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("status_line:\n  command: [evil]\n"), 0o644))

	_, err = Load(path)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Contains(t, err.Error(), "hash mismatch")

	cfg, err := LoadUnverified(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"evil"}, cfg.StatusLine.Command)

	_, err = WriteChecksums(path)
	require.NoError(t, err)
	_, err = Load(path)
	assert.NoError(t, err, "resealing accepts the edit")
}

func TestLoad_ManifestWithoutEntry(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "status_line:\n  command: [renderer]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChecksumFile), []byte("version: 1\nhashes: {}\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Contains(t, err.Error(), "has no hash")
}

func TestLoadChecksums_Missing(t *testing.T) {
	_, err := LoadChecksums(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadChecksums_BadVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChecksumFile), []byte("version: 9\n"), 0o600))

	_, err := LoadChecksums(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported checksums version")
}
