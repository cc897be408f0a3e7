package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")

	err := Write(path, []byte("hello"), 0644)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestWriteReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := Write(path, []byte("new content"), 0644)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(got))
}

func TestWriteLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	require.NoError(t, Write(path, []byte("data"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "song.mp3", entries[0].Name())
}

func TestWriteFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-subdir", "song.mp3")
	err := Write(path, []byte("data"), 0644)
	assert.Error(t, err)
}
