package transfer

import (
	"context"
	stderrors "errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// Option configures an Accessor.
type Option func(*Accessor)

// WithFetcher sets the fetcher used for remote stores. Without one, remote
// stores only serve content already in storage.
func WithFetcher(f Fetcher) Option {
	return func(a *Accessor) { a.fetcher = f }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Accessor) { a.logger = logging.OrNop(l) }
}

// Accessor performs content operations against a single concrete store.
// It knows nothing about groups, generators or caching policy.
type Accessor struct {
	fs      core.FS
	fetcher Fetcher
	logger  *logging.Logger
}

// NewAccessor returns an accessor storing content in filesystem.
func NewAccessor(filesystem core.FS, opts ...Option) *Accessor {
	a := &Accessor{
		fs:     filesystem,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FS returns the underlying filesystem.
func (a *Accessor) FS() core.FS { return a.fs }

// Transfer returns a handle for key and path without touching storage.
func (a *Accessor) Transfer(key store.Key, path string) *Transfer {
	return newTransfer(a.fs, key, path)
}

// Retrieve returns the content of path in s. Remote stores fetch from their
// origin on a storage miss and keep the result. A missing path yields a
// CodeNotFound error; an unreachable origin yields CodeTransportFailure or
// CodeTimeout.
func (a *Accessor) Retrieve(ctx context.Context, s *store.ArtifactStore, path string) (*Transfer, error) {
	t := a.Transfer(s.Key, path)
	if IsDir(t.Path()) {
		return nil, notFound(s.Key, path)
	}

	ok, err := t.Exists()
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}

	if !s.IsRemote() || a.fetcher == nil {
		return nil, notFound(s.Key, path)
	}

	body, err := a.fetcher.Fetch(ctx, s, t.Path())
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	if err := t.WriteFrom(body); err != nil {
		return nil, err
	}
	a.logger.WithStore(s.Key).WithPath(t.Path()).Debug(ctx, "cached remote content")
	return t, nil
}

// Store writes data to path in s.
func (a *Accessor) Store(ctx context.Context, s *store.ArtifactStore, path string, data []byte) (*Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCanceled, "store canceled")
	}

	t := a.Transfer(s.Key, path)
	if IsDir(t.Path()) {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "cannot store content at a directory path"), "path", path)
	}
	if err := t.Write(data); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes path from s's storage. It reports whether anything was
// removed. Directory paths are removed recursively.
func (a *Accessor) Delete(ctx context.Context, s *store.ArtifactStore, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(err, errors.CodeCanceled, "delete canceled")
	}

	t := a.Transfer(s.Key, path)
	if !IsDir(t.Path()) {
		return t.Delete()
	}

	if ok, err := a.fs.Exists(t.StoragePath()); err != nil || !ok {
		return false, err
	}
	if err := a.fs.RemoveAll(t.StoragePath()); err != nil {
		return false, t.storageError(err, "failed to delete directory")
	}
	return true, nil
}

// Exists reports whether path exists in s. For remote stores a storage miss
// is checked against the origin.
func (a *Accessor) Exists(ctx context.Context, s *store.ArtifactStore, path string) (bool, error) {
	t := a.Transfer(s.Key, path)
	if IsDir(t.Path()) {
		return a.fs.Exists(t.StoragePath())
	}

	ok, err := t.Exists()
	if err != nil || ok {
		return ok, err
	}
	if !s.IsRemote() || a.fetcher == nil {
		return false, nil
	}
	return a.fetcher.Exists(ctx, s, t.Path())
}

// List returns the direct children of the directory path in s, sorted.
// Directory names carry a trailing slash. A missing directory lists as
// empty. Remote stores list what is held in storage.
func (a *Accessor) List(ctx context.Context, s *store.ArtifactStore, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCanceled, "list canceled")
	}

	t := a.Transfer(s.Key, path)
	entries, err := a.fs.ReadDir(t.StoragePath())
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, t.storageError(err, "failed to list directory")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Walk calls fn for every file stored under path in s, depth-first in name
// order. Walking stops at the first error fn returns.
func (a *Accessor) Walk(ctx context.Context, s *store.ArtifactStore, path string, fn func(path string) error) error {
	dir := CleanPath(path)
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	names, err := a.List(ctx, s, dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeCanceled, "walk canceled")
		}

		child := dir + name
		if strings.HasSuffix(name, "/") {
			if err := a.Walk(ctx, s, child, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}

func notFound(key store.Key, path string) error {
	return errors.WithContextMap(errors.New(errors.CodeNotFound, "content not found"), map[string]interface{}{
		"store": key.String(),
		"path":  path,
	})
}
