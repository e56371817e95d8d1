package badger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "cache")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.DirExists(t, tmpDir)
	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestWithTx(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	key := []byte("k")

	t.Run("write commits", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			return tx.Set(key, []byte("v1"))
		}, true)
		require.NoError(t, err)

		var got []byte
		err = backend.WithTx(func(tx *badger.Txn) error {
			var err error
			got, err = readValue(tx, key)
			return err
		}, false)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("error discards", func(t *testing.T) {
		boom := errors.New("boom")
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(key, []byte("v2")); err != nil {
				return err
			}
			return boom
		}, true)
		assert.ErrorIs(t, err, boom)

		var got []byte
		err = backend.WithTx(func(tx *badger.Txn) error {
			var err error
			got, err = readValue(tx, key)
			return err
		}, false)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})
}
