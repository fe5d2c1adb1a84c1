package toolconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.EqualValues(t, 0, cfg.BaseAddr)
	assert.Empty(t, cfg.LibraryPaths)
}

func TestLoadReadsExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_addr: \"0x40000\"\nlibrary_paths:\n  - /opt/ez80/lib\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 0x40000, cfg.BaseAddr)
	assert.Equal(t, []string{"/opt/ez80/lib"}, cfg.LibraryPaths)
}

func TestParseHexAddr(t *testing.T) {
	cases := map[string]uint32{
		"0":       0,
		"0x1000":  0x1000,
		"0X40000": 0x40000,
		"65536":   65536,
	}
	for in, want := range cases {
		got, err := ParseHexAddr(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseHexAddrRejectsGarbage(t *testing.T) {
	_, err := ParseHexAddr("not-an-address")
	assert.Error(t, err)
}
