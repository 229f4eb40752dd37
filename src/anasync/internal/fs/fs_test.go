package fs

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdirAll(t *testing.T) {
	dir := path.Join(t.TempDir(), "foo/bar")
	fs := New()
	require.NoError(t, fs.MkdirAll(dir))

	exists, err := fs.DirExists(dir)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestDirExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		dir := t.TempDir()
		fs := New()
		result, err := fs.DirExists(dir)
		assert.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("does not exist", func(t *testing.T) {
		dir := t.TempDir()
		fs := New()
		result, err := fs.DirExists(dir + "foo")
		assert.NoError(t, err)
		assert.False(t, result)
	})

	t.Run("regular file", func(t *testing.T) {
		file := path.Join(t.TempDir(), "anasync.log")
		require.NoError(t, os.WriteFile(file, []byte("log"), 0o644))
		fs := New()
		result, err := fs.DirExists(file)
		assert.NoError(t, err)
		assert.False(t, result)
	})
}
