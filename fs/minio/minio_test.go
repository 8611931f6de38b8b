package minio

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/jmgilman/go/fs/core"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "complete",
			cfg:  Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"},
		},
		{
			name: "client only",
			cfg:  Config{Bucket: "b", Client: &minio.Client{}},
		},
		{
			name:    "missing bucket",
			cfg:     Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"},
			wantErr: "bucket is required",
		},
		{
			name:    "missing endpoint",
			cfg:     Config{Bucket: "b", AccessKey: "a", SecretKey: "s"},
			wantErr: "endpoint is required",
		},
		{
			name:    "missing access key",
			cfg:     Config{Endpoint: "localhost:9000", Bucket: "b", SecretKey: "s"},
			wantErr: "access key is required",
		},
		{
			name:    "missing secret key",
			cfg:     Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a"},
			wantErr: "secret key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewMinIO_InvalidConfig(t *testing.T) {
	_, err := NewMinIO(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{"", "org/foo/1.0/foo-1.0.jar", "org/foo/1.0/foo-1.0.jar"},
		{"", "/org/foo/", "org/foo"},
		{"", "/", ""},
		{"content", "org/foo", "content/org/foo"},
		{"/content/", "org/foo", "content/org/foo"},
		{"content", "", "content"},
		{"content", "../org", "content/org"},
		{"", "org\\foo", "org/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.name, func(t *testing.T) {
			m, err := NewMinIO(Config{Bucket: "b", Prefix: tt.prefix, Client: &minio.Client{}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.key(tt.name))
		})
	}
}

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "", dirPrefix(""))
	assert.Equal(t, "org/", dirPrefix("org"))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	notFound := minio.ErrorResponse{Code: "NoSuchKey"}
	assert.True(t, errors.Is(translate(notFound), fs.ErrNotExist))

	noBucket := minio.ErrorResponse{Code: "NoSuchBucket"}
	assert.True(t, errors.Is(translate(noBucket), fs.ErrNotExist))

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.True(t, errors.Is(translate(denied), fs.ErrPermission))

	other := translate(errors.New("boom"))
	assert.Contains(t, other.Error(), "minio: boom")
}

func TestFileInfo(t *testing.T) {
	dir := newFileInfo("org", 0, time.Time{}, true)
	assert.True(t, dir.IsDir())
	assert.Equal(t, fs.ModeDir, dir.Mode().Type())

	file := newFileInfo("foo.pom", 12, time.Time{}, false)
	assert.False(t, file.IsDir())
	assert.Equal(t, int64(12), file.Size())
	assert.Equal(t, fs.FileMode(0o644), file.Mode())
}

func TestWriteFile_ClosedRejectsWrites(t *testing.T) {
	f := &writeFile{name: "x"}
	f.closed = true

	_, err := f.Write([]byte("data"))
	assert.ErrorIs(t, err, fs.ErrClosed)
	assert.ErrorIs(t, f.Close(), fs.ErrClosed)
}

func TestType(t *testing.T) {
	m, err := NewMinIO(Config{Bucket: "b", Client: &minio.Client{}})
	require.NoError(t, err)
	assert.Equal(t, core.FSTypeRemote, m.Type())
}
