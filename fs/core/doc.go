// Package core defines the filesystem abstraction the content engine stores
// bytes through.
//
// Transfers, merge artifacts and merge-info sidecars are all written through
// an FS, so the same engine runs against a local directory, an in-memory tree
// (tests) or an S3-compatible bucket. Implementations live in sibling
// packages:
//
//   - fs/billy: local disk and in-memory trees backed by go-billy
//   - fs/minio: MinIO and other S3-compatible object stores
//
// Paths are slash-separated and relative to the filesystem root. Errors for
// missing files satisfy errors.Is(err, ErrNotExist).
package core
