package minio

import (
	"bytes"
	"context"
	"io/fs"
	"time"

	"github.com/minio/minio-go/v7"
)

// readFile streams an object.
type readFile struct {
	obj  *minio.Object
	name string
	info fs.FileInfo
}

func (f *readFile) Read(p []byte) (int, error) { return f.obj.Read(p) }
func (f *readFile) Close() error               { return f.obj.Close() }
func (f *readFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *readFile) Name() string               { return f.name }
func (f *readFile) Write([]byte) (int, error)  { return 0, fs.ErrPermission }

// writeFile buffers writes and uploads them on Close.
type writeFile struct {
	fs     *MinioFS
	name   string
	key    string
	buf    bytes.Buffer
	closed bool
}

func (f *writeFile) Read([]byte) (int, error) { return 0, fs.ErrPermission }
func (f *writeFile) Name() string             { return f.name }

func (f *writeFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.buf.Write(p)
}

func (f *writeFile) Stat() (fs.FileInfo, error) {
	return newFileInfo(f.name, int64(f.buf.Len()), time.Now(), false), nil
}

func (f *writeFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return f.fs.put(context.Background(), f.name, f.key, f.buf.Bytes())
}

type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func newFileInfo(name string, size int64, modTime time.Time, dir bool) fileInfo {
	return fileInfo{name: name, size: size, modTime: modTime, dir: dir}
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return i.dir }
func (i fileInfo) Sys() any           { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

type dirEntry struct {
	info fileInfo
}

func (d dirEntry) Name() string               { return d.info.name }
func (d dirEntry) IsDir() bool                { return d.info.dir }
func (d dirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }
