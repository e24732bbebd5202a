package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BUILDSTAMP_TEST_A=from-env\nBUILDSTAMP_TEST_B=\"quoted value\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("BUILDSTAMP_TEST_A=from-local\nBUILDSTAMP_TEST_C=local\n"), 0o600))

	t.Setenv("BUILDSTAMP_TEST_A", "")
	require.NoError(t, os.Unsetenv("BUILDSTAMP_TEST_A"))
	t.Setenv("BUILDSTAMP_TEST_B", "process")
	t.Setenv("BUILDSTAMP_TEST_C", "")
	require.NoError(t, os.Unsetenv("BUILDSTAMP_TEST_C"))

	loaded, err := LoadEnvFiles(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	require.Equal(t, "from-env", os.Getenv("BUILDSTAMP_TEST_A"))
	require.Equal(t, "process", os.Getenv("BUILDSTAMP_TEST_B"))
	require.Equal(t, "local", os.Getenv("BUILDSTAMP_TEST_C"))
}

func TestLoadEnvFilesNoneFound(t *testing.T) {
	loaded, err := LoadEnvFiles(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, loaded)
}
