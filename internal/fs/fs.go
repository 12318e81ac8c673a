package fs

import (
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

// File is an open file being written.
type File interface {
	io.WriteCloser
	Name() string
	Sync() error
}

// FileSystem is the subset of file system operations used for output.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Chmod(name string, mode os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// LocalFS implements FileSystem using the os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error                  { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error      { return os.Rename(oldpath, newpath) }
func (LocalFS) Chmod(name string, mode os.FileMode) error { return os.Chmod(name, mode) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Default is the local file system.
var Default FileSystem = LocalFS{}

// CreateTemp creates a new file in dir named "." + base + ".tmp-" plus a
// random suffix, opened for exclusive writing with mode 0600.
func CreateTemp(fsys FileSystem, dir, base string) (File, error) {
	prefix := filepath.Join(dir, "."+base+".tmp-")
	for range 10000 {
		name := prefix + strconv.FormatUint(rand.Uint64(), 36)
		f, err := fsys.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return f, err
	}
	return nil, &os.PathError{Op: "createtemp", Path: prefix + "*", Err: os.ErrExist}
}
