package core

import (
	"io"
	"io/fs"
)

// FSType identifies the kind of backend behind an FS.
type FSType int

const (
	// FSTypeUnknown is returned by implementations that do not classify themselves.
	FSTypeUnknown FSType = iota
	// FSTypeLocal is a directory on the local disk.
	FSTypeLocal
	// FSTypeMemory is an in-memory tree.
	FSTypeMemory
	// FSTypeRemote is a remote object store.
	FSTypeRemote
)

func (t FSType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeMemory:
		return "memory"
	case FSTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// FS is the full read/write filesystem used for content storage.
type FS interface {
	ReadFS
	WriteFS
	ManageFS

	// Type reports the backend kind.
	Type() FSType
}

// ReadFS provides read access.
type ReadFS interface {
	// Open opens the named file for reading.
	Open(name string) (fs.File, error)

	// Stat returns file information for name.
	Stat(name string) (fs.FileInfo, error)

	// ReadDir returns the entries of the named directory sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)

	// ReadFile reads the whole named file.
	ReadFile(name string) ([]byte, error)

	// Exists reports whether name exists. A missing file is not an error.
	Exists(name string) (bool, error)
}

// WriteFS provides write access.
type WriteFS interface {
	// Create creates or truncates the named file for writing.
	// Parent directories are created as needed.
	Create(name string) (File, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(path string, perm fs.FileMode) error
}

// ManageFS provides removal and renaming.
type ManageFS interface {
	// Remove removes a file or an empty directory.
	Remove(name string) error

	// RemoveAll removes path and any children. A missing path is not an error.
	RemoveAll(path string) error

	// Rename moves oldpath to newpath, replacing any existing file.
	// Local and memory backends rename atomically; object stores copy then delete.
	Rename(oldpath, newpath string) error
}

// File is a handle returned by Create.
type File interface {
	fs.File
	io.Writer

	// Name returns the name the file was opened with.
	Name() string
}

// TempFS is implemented by backends that can create uniquely named
// temporary files, used for atomic publish.
type TempFS interface {
	TempFile(dir, pattern string) (File, error)
}
