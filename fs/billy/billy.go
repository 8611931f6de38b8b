package billy

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/fs/core"
)

// FS adapts a billy.Filesystem to core.FS.
type FS struct {
	bfs billy.Filesystem
	typ core.FSType

	// mu guards the memory backend, whose tree is not safe for concurrent
	// mutation. It is unused for the local backend.
	mu     sync.RWMutex
	locked bool
}

// NewLocal returns a filesystem rooted at root on the local disk.
func NewLocal(root string) *FS {
	return &FS{
		bfs: osfs.New(root),
		typ: core.FSTypeLocal,
	}
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return &FS{
		bfs:    memfs.New(),
		typ:    core.FSTypeMemory,
		locked: true,
	}
}

// Unwrap returns the underlying billy.Filesystem.
func (f *FS) Unwrap() billy.Filesystem {
	return f.bfs
}

// Type implements core.FS.
func (f *FS) Type() core.FSType {
	return f.typ
}

func (f *FS) rlock() func() {
	if !f.locked {
		return func() {}
	}
	f.mu.RLock()
	return f.mu.RUnlock
}

func (f *FS) lock() func() {
	if !f.locked {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func normalize(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(name, "/")
}

type dirEntry struct {
	info fs.FileInfo
}

func (d *dirEntry) Name() string               { return d.info.Name() }
func (d *dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *dirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// Open opens name for reading. For the memory backend the content is read
// eagerly so the handle stays valid while the tree changes underneath.
func (f *FS) Open(name string) (fs.File, error) {
	name = normalize(name)
	if f.locked {
		data, info, err := f.readLocked(name)
		if err != nil {
			return nil, err
		}
		return newSnapshotFile(name, data, info), nil
	}

	bf, err := f.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

func (f *FS) readLocked(name string) ([]byte, fs.FileInfo, error) {
	defer f.rlock()()

	info, err := f.bfs.Stat(name)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, info, nil
	}
	data, err := f.readFile(name)
	return data, info, err
}

// Stat implements core.ReadFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	defer f.rlock()()
	return f.bfs.Stat(normalize(name))
}

// ReadDir implements core.ReadFS.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	defer f.rlock()()

	infos, err := f.bfs.ReadDir(normalize(name))
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = &dirEntry{info: info}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// ReadFile implements core.ReadFS.
func (f *FS) ReadFile(name string) ([]byte, error) {
	defer f.rlock()()
	return f.readFile(normalize(name))
}

func (f *FS) readFile(name string) ([]byte, error) {
	bf, err := f.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = bf.Close() }()
	return io.ReadAll(bf)
}

// Exists implements core.ReadFS.
func (f *FS) Exists(name string) (bool, error) {
	defer f.rlock()()

	_, err := f.bfs.Stat(normalize(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Create implements core.WriteFS. Memory handles buffer writes and publish
// them on Close.
func (f *FS) Create(name string) (core.File, error) {
	name = normalize(name)
	if f.locked {
		return &bufferedFile{name: name, commit: func(data []byte) error {
			return f.WriteFile(name, data, 0o644)
		}}, nil
	}

	bf, err := f.bfs.Create(name)
	if err != nil {
		return nil, err
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

// WriteFile implements core.WriteFS.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	defer f.lock()()
	return f.writeFile(normalize(name), data, perm)
}

func (f *FS) writeFile(name string, data []byte, perm fs.FileMode) error {
	bf, err := f.bfs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := bf.Write(data); err != nil {
		_ = bf.Close()
		return err
	}
	return bf.Close()
}

// MkdirAll implements core.WriteFS.
func (f *FS) MkdirAll(name string, perm fs.FileMode) error {
	defer f.lock()()
	return f.bfs.MkdirAll(normalize(name), perm)
}

// Remove implements core.ManageFS.
func (f *FS) Remove(name string) error {
	defer f.lock()()
	return f.bfs.Remove(normalize(name))
}

// RemoveAll implements core.ManageFS.
func (f *FS) RemoveAll(name string) error {
	defer f.lock()()
	return f.removeAll(normalize(name))
}

func (f *FS) removeAll(name string) error {
	info, err := f.bfs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	if info.IsDir() {
		children, err := f.bfs.ReadDir(name)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := f.removeAll(path.Join(name, child.Name())); err != nil {
				return err
			}
		}
	}
	return f.bfs.Remove(name)
}

// Rename implements core.ManageFS. An existing newpath is replaced.
func (f *FS) Rename(oldpath, newpath string) error {
	defer f.lock()()

	oldpath, newpath = normalize(oldpath), normalize(newpath)
	if f.locked {
		// memfs refuses to rename onto an existing file.
		if info, err := f.bfs.Stat(newpath); err == nil && !info.IsDir() {
			if err := f.bfs.Remove(newpath); err != nil {
				return err
			}
		}
	}
	if dir := path.Dir(newpath); dir != "." {
		if err := f.bfs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return f.bfs.Rename(oldpath, newpath)
}

// TempFile implements core.TempFS.
func (f *FS) TempFile(dir, pattern string) (core.File, error) {
	defer f.lock()()

	bf, err := f.bfs.TempFile(normalize(dir), pattern)
	if err != nil {
		return nil, err
	}
	if f.locked {
		name := bf.Name()
		_ = bf.Close()
		return &bufferedFile{name: name, commit: func(data []byte) error {
			return f.WriteFile(name, data, 0o644)
		}}, nil
	}
	return &File{file: bf, fs: f.bfs, name: bf.Name()}, nil
}

var (
	_ core.FS     = (*FS)(nil)
	_ core.TempFS = (*FS)(nil)
)
