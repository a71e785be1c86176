package output

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.out")

	require.NoError(t, WriteExecutable(path, []byte("\x7fELF first")))
	require.NoError(t, WriteExecutable(path, []byte("\x7fELF second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x7fELF second", string(got))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, ExecutableMode, fi.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files left behind")
	assert.Equal(t, "a.out", entries[0].Name())
}

func TestWriteExecutableMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "a.out")
	err := WriteExecutable(path, []byte{0x7f})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
