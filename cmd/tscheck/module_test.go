package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModuleAcceptsBuiltinName(t *testing.T) {
	mod, err := resolveModule("s1_trivial_proved")
	require.NoError(t, err)
	assert.NotNil(t, mod.Invariant)
}

func TestResolveModuleAcceptsFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	contents := []byte("name: inline\nstvars: []\ninit: []\naction:\n  stvars: []\n  defs: []\n  fmlas: []\ninvariant:\n  type: true\n")
	require.NoError(t, os.WriteFile(path, contents, 0644))

	mod, err := resolveModule(path)
	require.NoError(t, err)
	assert.NotNil(t, mod.Invariant)
}

func TestResolveModuleRejectsUnknownArgument(t *testing.T) {
	_, err := resolveModule("does-not-exist-anywhere")
	assert.Error(t, err)
}
