package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTemp(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateTemp(Default, dir, "out.tsv")
	require.NoError(t, err)
	defer a.Close()
	b, err := CreateTemp(Default, dir, "out.tsv")
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Name(), b.Name())
	assert.True(t, strings.HasPrefix(filepath.Base(a.Name()), ".out.tsv.tmp-"))
	assert.Equal(t, dir, filepath.Dir(a.Name()))
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	f, err := ffs.OpenFile(filepath.Join(dir, "limited"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = f.Write([]byte("de"))
	require.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, int64(3), ffs.Written())

	other, err := ffs.OpenFile(filepath.Join(dir, "free"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Write([]byte("unlimited"))
	require.NoError(t, err)
}

func TestFaultyFS_SyncCloseRename(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	custom := os.ErrPermission
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true, Err: custom})
	ffs.AddRule("rename", Fault{FailAfterBytes: -1, FailOnRename: true})

	f, err := ffs.OpenFile(filepath.Join(dir, "sync"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	require.ErrorIs(t, f.Sync(), ErrInjected)
	require.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(dir, "close"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	require.ErrorIs(t, f.Close(), custom)

	src := filepath.Join(dir, "rename")
	require.NoError(t, os.WriteFile(src, nil, 0o644))
	require.ErrorIs(t, ffs.Rename(src, filepath.Join(dir, "dst")), ErrInjected)
	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestFaultyFS_RecordsRemovals(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	name := filepath.Join(dir, "gone")
	require.NoError(t, os.WriteFile(name, nil, 0o644))

	require.NoError(t, ffs.Remove(name))
	assert.Equal(t, []string{name}, ffs.Removed())
}
