package transfer

import (
	stderrors "errors"
	"io"
	"io/fs"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"github.com/jmgilman/go/store"
)

// Transfer identifies content at a store path. The content may or may not
// exist.
type Transfer struct {
	key  store.Key
	path string
	full string
	fs   core.FS
}

func newTransfer(filesystem core.FS, key store.Key, p string) *Transfer {
	return &Transfer{
		key:  key,
		path: CleanPath(p),
		full: storagePath(key, p),
		fs:   filesystem,
	}
}

// Key returns the owning store.
func (t *Transfer) Key() store.Key { return t.key }

// Path returns the request path.
func (t *Transfer) Path() string { return t.path }

// StoragePath returns the location in the underlying filesystem.
func (t *Transfer) StoragePath() string { return t.full }

func (t *Transfer) String() string {
	return t.key.String() + ":" + t.path
}

// Sibling returns the transfer at this path plus suffix, e.g. ".sha1".
func (t *Transfer) Sibling(suffix string) *Transfer {
	return newTransfer(t.fs, t.key, t.path+suffix)
}

// Exists reports whether the content is present as a file.
func (t *Transfer) Exists() (bool, error) {
	info, err := t.fs.Stat(t.full)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, t.storageError(err, "failed to stat content")
	}
	return !info.IsDir(), nil
}

// Stat returns file information.
func (t *Transfer) Stat() (fs.FileInfo, error) {
	info, err := t.fs.Stat(t.full)
	if err != nil {
		return nil, t.storageError(err, "failed to stat content")
	}
	return info, nil
}

// ModTime returns the last modification time or the zero time.
func (t *Transfer) ModTime() time.Time {
	info, err := t.fs.Stat(t.full)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Open opens the content for reading.
func (t *Transfer) Open() (io.ReadCloser, error) {
	f, err := t.fs.Open(t.full)
	if err != nil {
		return nil, t.storageError(err, "failed to open content")
	}
	return f, nil
}

// ReadAll reads the whole content.
func (t *Transfer) ReadAll() ([]byte, error) {
	data, err := t.fs.ReadFile(t.full)
	if err != nil {
		return nil, t.storageError(err, "failed to read content")
	}
	return data, nil
}

// Write replaces the content atomically.
func (t *Transfer) Write(data []byte) error {
	tmp := tempPath()
	if err := t.fs.WriteFile(tmp, data, 0o644); err != nil {
		return t.storageError(err, "failed to write temporary file")
	}
	return t.publish(tmp)
}

// WriteFrom streams r into the content atomically.
func (t *Transfer) WriteFrom(r io.Reader) error {
	f, err := t.createTemp()
	if err != nil {
		return t.storageError(err, "failed to create temporary file")
	}
	tmp := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = t.fs.Remove(tmp)
		return t.storageError(err, "failed to write temporary file")
	}
	if err := f.Close(); err != nil {
		_ = t.fs.Remove(tmp)
		return t.storageError(err, "failed to close temporary file")
	}
	return t.publish(tmp)
}

func (t *Transfer) createTemp() (core.File, error) {
	if tfs, ok := t.fs.(core.TempFS); ok {
		return tfs.TempFile(TempDir, "write-*")
	}
	return t.fs.Create(tempPath())
}

func (t *Transfer) publish(tmp string) error {
	if err := t.fs.Rename(tmp, t.full); err != nil {
		_ = t.fs.Remove(tmp)
		return t.storageError(err, "failed to publish content")
	}
	return nil
}

// Delete removes the content. It reports whether anything was removed.
func (t *Transfer) Delete() (bool, error) {
	ok, err := t.Exists()
	if err != nil || !ok {
		return false, err
	}
	if err := t.fs.Remove(t.full); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, t.storageError(err, "failed to delete content")
	}
	return true, nil
}

func (t *Transfer) storageError(err error, msg string) error {
	code := errors.CodeStorage
	if stderrors.Is(err, fs.ErrNotExist) {
		code = errors.CodeNotFound
	}
	return errors.WrapWithContext(err, code, msg, map[string]interface{}{
		"store": t.key.String(),
		"path":  t.path,
	})
}
