package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmgilman/go/fs/core"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioFS implements core.FS on top of a bucket.
type MinioFS struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIO creates a filesystem from cfg.
func NewMinIO(cfg Config) (*MinioFS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &MinioFS{
		client: client,
		bucket: cfg.Bucket,
		prefix: cleanKey(cfg.Prefix),
	}, nil
}

// cleanKey normalizes a slash path into an object key without leading or
// trailing slashes. The root maps to "".
func cleanKey(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	return strings.Trim(name, "/")
}

func (m *MinioFS) key(name string) string {
	name = cleanKey(name)
	switch {
	case m.prefix == "":
		return name
	case name == "":
		return m.prefix
	default:
		return m.prefix + "/" + name
	}
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

// Type implements core.FS.
func (m *MinioFS) Type() core.FSType {
	return core.FSTypeRemote
}

// Open implements core.ReadFS.
func (m *MinioFS) Open(name string) (fs.File, error) {
	ctx := context.Background()
	key := m.key(name)

	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, pathError("open", name, translate(err))
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, pathError("open", name, translate(err))
	}

	return &readFile{
		obj:  obj,
		name: name,
		info: newFileInfo(path.Base(key), info.Size, info.LastModified, false),
	}, nil
}

// Stat implements core.ReadFS. A name with objects beneath it reports as a
// directory.
func (m *MinioFS) Stat(name string) (fs.FileInfo, error) {
	ctx := context.Background()
	key := m.key(name)

	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return newFileInfo(path.Base(key), info.Size, info.LastModified, false), nil
	}

	translated := translate(err)
	if !errors.Is(translated, fs.ErrNotExist) {
		return nil, pathError("stat", name, translated)
	}

	isDir, derr := m.hasChildren(ctx, key)
	if derr != nil {
		return nil, pathError("stat", name, derr)
	}
	if !isDir {
		return nil, pathError("stat", name, fs.ErrNotExist)
	}
	return newFileInfo(path.Base(key), 0, time.Time{}, true), nil
}

func (m *MinioFS) hasChildren(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:  dirPrefix(key),
		MaxKeys: 1,
	}) {
		if object.Err != nil {
			return false, translate(object.Err)
		}
		return true, nil
	}
	return false, nil
}

// ReadDir implements core.ReadFS using a delimited listing.
func (m *MinioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	prefix := dirPrefix(m.key(name))

	var entries []fs.DirEntry
	for object := range m.client.ListObjects(context.Background(), m.bucket, minio.ListObjectsOptions{
		Prefix: prefix,
	}) {
		if object.Err != nil {
			return nil, pathError("readdir", name, translate(object.Err))
		}

		rel := strings.TrimPrefix(object.Key, prefix)
		isDir := strings.HasSuffix(rel, "/")
		rel = strings.TrimSuffix(rel, "/")
		if rel == "" {
			continue
		}
		entries = append(entries, dirEntry{newFileInfo(rel, object.Size, object.LastModified, isDir)})
	}

	if len(entries) == 0 {
		return nil, pathError("readdir", name, fs.ErrNotExist)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// ReadFile implements core.ReadFS.
func (m *MinioFS) ReadFile(name string) ([]byte, error) {
	f, err := m.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, pathError("readfile", name, translate(err))
	}
	return data, nil
}

// Exists implements core.ReadFS.
func (m *MinioFS) Exists(name string) (bool, error) {
	_, err := m.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Create implements core.WriteFS. The object is uploaded on Close.
func (m *MinioFS) Create(name string) (core.File, error) {
	return &writeFile{fs: m, name: name, key: m.key(name)}, nil
}

// WriteFile implements core.WriteFS.
func (m *MinioFS) WriteFile(name string, data []byte, _ fs.FileMode) error {
	return m.put(context.Background(), name, m.key(name), data)
}

func (m *MinioFS) put(ctx context.Context, name, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return pathError("write", name, translate(err))
}

// MkdirAll is a no-op: directories are virtual.
func (m *MinioFS) MkdirAll(string, fs.FileMode) error {
	return nil
}

// Remove implements core.ManageFS.
func (m *MinioFS) Remove(name string) error {
	err := m.client.RemoveObject(context.Background(), m.bucket, m.key(name), minio.RemoveObjectOptions{})
	return pathError("remove", name, translate(err))
}

// RemoveAll removes the object at name and every object beneath it.
func (m *MinioFS) RemoveAll(name string) error {
	ctx := context.Background()
	key := m.key(name)

	objects := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	go func() {
		defer close(objects)
		objects <- minio.ObjectInfo{Key: key}
		for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
			Prefix:    dirPrefix(key),
			Recursive: true,
		}) {
			if object.Err != nil {
				listErr <- object.Err
				return
			}
			objects <- object
		}
	}()

	var firstErr error
	for rerr := range m.client.RemoveObjects(ctx, m.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil && firstErr == nil && !errors.Is(translate(rerr.Err), fs.ErrNotExist) {
			firstErr = rerr.Err
		}
	}

	select {
	case err := <-listErr:
		return pathError("removeall", name, translate(err))
	default:
	}
	return pathError("removeall", name, translate(firstErr))
}

// Rename copies oldpath onto newpath and removes oldpath. Only files are
// supported.
func (m *MinioFS) Rename(oldpath, newpath string) error {
	ctx := context.Background()
	oldKey, newKey := m.key(oldpath), m.key(newpath)

	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: newKey},
		minio.CopySrcOptions{Bucket: m.bucket, Object: oldKey},
	)
	if err != nil {
		return pathError("rename", oldpath, translate(err))
	}

	err = m.client.RemoveObject(ctx, m.bucket, oldKey, minio.RemoveObjectOptions{})
	return pathError("rename", oldpath, translate(err))
}

var _ core.FS = (*MinioFS)(nil)
