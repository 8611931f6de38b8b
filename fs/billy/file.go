package billy

import (
	"bytes"
	"io"
	"io/fs"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/fs/core"
)

// File wraps a billy.File as a core.File.
type File struct {
	file billy.File
	fs   billy.Basic
	name string
}

func (f *File) Read(p []byte) (int, error)  { return f.file.Read(p) }
func (f *File) Write(p []byte) (int, error) { return f.file.Write(p) }
func (f *File) Close() error                { return f.file.Close() }
func (f *File) Name() string                { return f.name }

// Stat returns the file's current information.
func (f *File) Stat() (fs.FileInfo, error) {
	return f.fs.Stat(f.name)
}

// snapshotFile is a read-only handle over content captured at Open.
type snapshotFile struct {
	*bytes.Reader
	name string
	info fs.FileInfo
}

func newSnapshotFile(name string, data []byte, info fs.FileInfo) *snapshotFile {
	return &snapshotFile{Reader: bytes.NewReader(data), name: name, info: info}
}

func (s *snapshotFile) Stat() (fs.FileInfo, error) { return s.info, nil }
func (s *snapshotFile) Close() error               { return nil }

// bufferedFile collects writes and publishes them in one step on Close.
type bufferedFile struct {
	name   string
	buf    bytes.Buffer
	commit func([]byte) error
	closed bool
}

func (b *bufferedFile) Read([]byte) (int, error) { return 0, io.EOF }
func (b *bufferedFile) Name() string             { return b.name }

func (b *bufferedFile) Write(p []byte) (int, error) {
	if b.closed {
		return 0, fs.ErrClosed
	}
	return b.buf.Write(p)
}

func (b *bufferedFile) Stat() (fs.FileInfo, error) {
	return bufferedInfo{name: b.name, size: int64(b.buf.Len())}, nil
}

func (b *bufferedFile) Close() error {
	if b.closed {
		return fs.ErrClosed
	}
	b.closed = true
	return b.commit(b.buf.Bytes())
}

type bufferedInfo struct {
	name string
	size int64
}

func (i bufferedInfo) Name() string       { return i.name }
func (i bufferedInfo) Size() int64        { return i.size }
func (i bufferedInfo) Mode() fs.FileMode  { return 0o644 }
func (i bufferedInfo) ModTime() time.Time { return time.Time{} }
func (i bufferedInfo) IsDir() bool        { return false }
func (i bufferedInfo) Sys() any           { return nil }

var (
	_ core.File = (*File)(nil)
	_ core.File = (*bufferedFile)(nil)
	_ fs.File   = (*snapshotFile)(nil)
)
