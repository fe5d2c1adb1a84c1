package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLibraryFindsPrefixedNameInSearchDir(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "libc.a")
	require.NoError(t, os.WriteFile(libPath, []byte("fake archive"), 0o644))

	path, buf, err := resolveLibrary("c", []string{dir})
	require.NoError(t, err)
	assert.Equal(t, libPath, path)
	assert.Equal(t, []byte("fake archive"), buf)
}

func TestResolveLibraryFallsBackToLiteralName(t *testing.T) {
	dir := t.TempDir()
	literal := filepath.Join(dir, "mylib.a")
	require.NoError(t, os.WriteFile(literal, []byte("literal archive"), 0o644))

	path, buf, err := resolveLibrary(literal, nil)
	require.NoError(t, err)
	assert.Equal(t, literal, path)
	assert.Equal(t, []byte("literal archive"), buf)
}

func TestResolveLibraryErrorsWhenNotFound(t *testing.T) {
	_, _, err := resolveLibrary("doesnotexist", nil)
	assert.Error(t, err)
}
