package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDataDir_CreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	if _, err := os.UserConfigDir(); err != nil {
		t.Skipf("no user config dir on this platform: %v", err)
	}

	dir, err := EnsureDataDir("acqbridge-test")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Equal(t, "acqbridge-test", filepath.Base(dir))
}

func TestEnsureDataDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	if _, err := os.UserConfigDir(); err != nil {
		t.Skipf("no user config dir on this platform: %v", err)
	}

	dir1, err := EnsureDataDir("acqbridge-test")
	require.NoError(t, err)
	dir2, err := EnsureDataDir("acqbridge-test")
	require.NoError(t, err)
	require.Equal(t, dir1, dir2)
}
