package rill_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/rill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	m, err := rill.LoadManifest(writeManifest(t, "entry: serve\ngrants: [Fs, Net]\n"))
	require.NoError(t, err)
	assert.Equal(t, "serve", m.Entry)
	assert.Equal(t, []string{"Fs", "Net"}, m.Grants)
}

func TestLoadManifestDefaultsEntry(t *testing.T) {
	m, err := rill.LoadManifest(writeManifest(t, "grants: [Time]\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", m.Entry)
}

func TestLoadManifestUnknownCapability(t *testing.T) {
	_, err := rill.LoadManifest(writeManifest(t, "grants: [Filesystem]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Filesystem")
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := rill.LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestManifestMissing(t *testing.T) {
	m := rill.Manifest{Entry: "main", Grants: []string{"Fs"}}

	missing := m.Missing([]types.CapKind{types.CapTime, types.CapFs, types.CapNet, types.CapTime})
	assert.Equal(t, []types.CapKind{types.CapNet, types.CapTime}, missing,
		"missing capabilities are deduplicated and sorted by name")
}

func TestManifestMissingNoneRequired(t *testing.T) {
	assert.Empty(t, rill.DefaultManifest().Missing(nil))
}
