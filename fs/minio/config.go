// Package minio provides a MinIO/S3-compatible implementation of core.FS.
//
// Objects are addressed as <prefix>/<path>. Directories are virtual: they
// exist while at least one object lives beneath them. Writes are buffered and
// uploaded with a single PutObject on Close, so an object is either absent or
// complete.
package minio

import (
	"fmt"

	"github.com/minio/minio-go/v7"
)

// Config holds MinIO filesystem configuration.
type Config struct {
	// Endpoint is the MinIO server address (e.g., "localhost:9000").
	Endpoint string

	// Bucket is the bucket holding all content.
	Bucket string

	// AccessKey is the access key ID for authentication.
	AccessKey string

	// SecretKey is the secret access key for authentication.
	SecretKey string

	// UseSSL enables HTTPS connections.
	UseSSL bool

	// Prefix namespaces every object key.
	Prefix string

	// Client is an optional pre-configured client. When set, Endpoint,
	// AccessKey and SecretKey are ignored.
	Client *minio.Client
}

// validate checks that either Client or the connection fields are set.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is required when client is not provided")
	}
	return nil
}
