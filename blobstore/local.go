package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/hupe1980/hitaccum/internal/fs"
	"github.com/hupe1980/hitaccum/internal/mmap"
)

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
	perm os.FileMode
	fsys fs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// Names are resolved relative to root; absolute names are used as-is.
func NewLocalStore(root string) *LocalStore {
	return NewLocalStoreFS(root, fs.Default)
}

// NewLocalStoreFS is NewLocalStore writing through fsys.
func NewLocalStoreFS(root string, fsys fs.FileSystem) *LocalStore {
	if fsys == nil {
		fsys = fs.Default
	}
	return &LocalStore{root: root, perm: 0o644, fsys: fsys}
}

func (s *LocalStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// URI returns the absolute path of name.
func (s *LocalStore) URI(name string) string {
	p, err := filepath.Abs(s.path(name))
	if err != nil {
		return s.path(name)
	}
	return p
}

// Open maps the blob read-only.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create starts an atomic write. Data goes to a temporary file in the target
// directory, which is renamed over name on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	final := s.path(name)
	dir := filepath.Dir(final)
	if err := s.fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := fs.CreateTemp(s.fsys, dir, filepath.Base(final))
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fsys: s.fsys, f: f, final: final, perm: s.perm}, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) {
	return b.m.ReadAt(p, off)
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

// Advise passes an access pattern hint to the kernel.
func (b *localBlob) Advise(pattern mmap.AccessPattern) error {
	return b.m.Advise(pattern)
}

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

type localWritableBlob struct {
	fsys  fs.FileSystem
	f     fs.File
	final string
	perm  os.FileMode
	done  atomic.Bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done.Load() {
		return 0, ErrClosed
	}
	return w.f.Write(p)
}

// Close syncs, closes and renames the temporary file into place.
func (w *localWritableBlob) Close() error {
	if !w.done.CompareAndSwap(false, true) {
		return ErrClosed
	}

	tmp := w.f.Name()
	err := w.f.Sync()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = w.fsys.Chmod(tmp, w.perm)
	}
	if err == nil {
		err = w.fsys.Rename(tmp, w.final)
	}
	if err != nil {
		_ = w.fsys.Remove(tmp)
		return err
	}
	return nil
}

// Abort removes the temporary file.
func (w *localWritableBlob) Abort() error {
	if !w.done.CompareAndSwap(false, true) {
		return nil
	}
	tmp := w.f.Name()
	cerr := w.f.Close()
	if err := w.fsys.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		return cerr
	}
	return nil
}

var _ io.Writer = (*localWritableBlob)(nil)
