package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "submissions/c1/a1/s1_essay.pdf"
	_, err = store.Save(key, []byte("%PDF body"))
	require.NoError(t, err)

	file, err := store.Open(key)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF body", string(data))
}

func TestLocalStorageDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	key := "submissions/c1/a1/s1_essay.pdf"
	_, err = store.Save(key, []byte("%PDF"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(key))
	_, statErr := os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(statErr))

	// deleting again is a no-op
	assert.NoError(t, store.Delete(key))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.pdf", []byte("%PDF"))
	assert.Error(t, err)

	_, err = store.Open("/etc/passwd")
	assert.Error(t, err)
}
