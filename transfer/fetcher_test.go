package transfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrigin(t *testing.T, handler http.HandlerFunc) *store.ArtifactStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return store.NewRemote("maven", "origin", srv.URL+"/repo/")
}

func testFetcher() *HTTPFetcher {
	cfg := DefaultHTTPConfig()
	cfg.RetryMax = 1
	cfg.Timeout = 2 * time.Second
	return NewHTTPFetcher(cfg, nil)
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	remote := newOrigin(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repo/org/foo/foo.pom":
			assert.Equal(t, "aggregator", r.Header.Get("User-Agent"))
			_, _ = io.WriteString(w, "<project/>")
		case "/repo/gone.pom":
			w.WriteHeader(http.StatusGone)
		default:
			http.NotFound(w, r)
		}
	})
	f := testFetcher()
	ctx := context.Background()

	body, err := f.Fetch(ctx, remote, "/org/foo/foo.pom")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "<project/>", string(data))

	_, err = f.Fetch(ctx, remote, "missing.pom")
	assert.True(t, errors.IsNotFound(err))

	_, err = f.Fetch(ctx, remote, "gone.pom")
	assert.True(t, errors.IsNotFound(err))
}

func TestHTTPFetcher_ServerErrorRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	remote := newOrigin(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := testFetcher().Fetch(context.Background(), remote, "x.pom")
	require.Error(t, err)
	assert.True(t, errors.IsTransportFailure(err))
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPFetcher_ClientErrorIsTransportFailure(t *testing.T) {
	remote := newOrigin(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := testFetcher().Fetch(context.Background(), remote, "x.pom")
	assert.True(t, errors.IsTransportFailure(err))
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	remote := newOrigin(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	remote.Timeout = 50 * time.Millisecond

	f := NewHTTPFetcher(HTTPConfig{Timeout: time.Second}, nil)
	_, err := f.Fetch(context.Background(), remote, "slow.pom")
	require.Error(t, err)
	assert.Equal(t, errors.CodeTimeout, errors.GetCode(err))
}

func TestHTTPFetcher_Exists(t *testing.T) {
	remote := newOrigin(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/repo/here.pom" {
			return
		}
		http.NotFound(w, r)
	})
	f := testFetcher()

	ok, err := f.Exists(context.Background(), remote, "here.pom")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Exists(context.Background(), remote, "absent.pom")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPFetcher_NoURL(t *testing.T) {
	_, err := testFetcher().Fetch(context.Background(), store.NewRemote("maven", "x", ""), "a")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}
