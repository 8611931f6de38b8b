package transfer

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jmgilman/go/store"
)

// TempDir holds in-flight writes.
const TempDir = ".temp"

// StoreRoot returns the directory holding a store's content.
func StoreRoot(key store.Key) string {
	return key.PackageType + "/" + string(key.Type) + "-" + key.Name
}

// CleanPath normalizes a request path: forward slashes, no leading slash,
// no parent references. A trailing slash is preserved to mark directories.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	dir := strings.HasSuffix(p, "/")

	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if dir && p != "" {
		p += "/"
	}
	return p
}

// IsDir reports whether a cleaned path names a directory.
func IsDir(p string) bool {
	return p == "" || strings.HasSuffix(p, "/")
}

func storagePath(key store.Key, p string) string {
	p = strings.TrimSuffix(CleanPath(p), "/")
	if p == "" {
		return StoreRoot(key)
	}
	return StoreRoot(key) + "/" + p
}

func tempPath() string {
	return TempDir + "/" + uuid.NewString()
}
