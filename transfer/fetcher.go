package transfer

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// Fetcher retrieves content from a remote store's origin.
//
// Fetch returns a CodeNotFound error when the origin does not have the path
// and a CodeTransportFailure error when the origin cannot be reached.
type Fetcher interface {
	Fetch(ctx context.Context, s *store.ArtifactStore, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, s *store.ArtifactStore, path string) (bool, error)
}

// HTTPConfig configures HTTPFetcher.
type HTTPConfig struct {
	// Timeout applies to stores that do not set their own.
	Timeout time.Duration

	// RetryMax is the number of retries on connection errors and 5xx
	// responses.
	RetryMax int

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultHTTPConfig returns a 30 second timeout with two retries.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:   30 * time.Second,
		RetryMax:  2,
		UserAgent: "aggregator",
	}
}

// HTTPFetcher fetches remote content over HTTP(S).
type HTTPFetcher struct {
	cfg    HTTPConfig
	client *retryablehttp.Client
	logger *logging.Logger
}

// NewHTTPFetcher returns a fetcher. A nil logger discards output.
func NewHTTPFetcher(cfg HTTPConfig, logger *logging.Logger) *HTTPFetcher {
	logger = logging.OrNop(logger)

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = leveledLogger{logger}

	return &HTTPFetcher{cfg: cfg, client: client, logger: logger}
}

func (f *HTTPFetcher) url(s *store.ArtifactStore, path string) (string, error) {
	if s.URL == "" {
		return "", errors.WithContext(errors.New(errors.CodeInvalidConfig, "remote store has no url"), "store", s.Key.String())
	}
	return strings.TrimSuffix(s.URL, "/") + "/" + CleanPath(path), nil
}

func (f *HTTPFetcher) timeout(s *store.ArtifactStore) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return f.cfg.Timeout
}

func (f *HTTPFetcher) do(ctx context.Context, method string, s *store.ArtifactStore, path string) (*http.Response, context.CancelFunc, error) {
	url, err := f.url(s, path)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout(s))
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to build request")
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		code := errors.CodeTransportFailure
		if ctx.Err() == context.DeadlineExceeded {
			code = errors.CodeTimeout
		}
		return nil, nil, errors.WrapWithContext(err, code, "remote request failed", map[string]interface{}{
			"store": s.Key.String(),
			"url":   url,
		})
	}
	return resp, cancel, nil
}

// Fetch implements Fetcher. The caller closes the returned body.
func (f *HTTPFetcher) Fetch(ctx context.Context, s *store.ArtifactStore, path string) (io.ReadCloser, error) {
	resp, cancel, err := f.do(ctx, http.MethodGet, s, path)
	if err != nil {
		return nil, err
	}

	if err := statusError(s, path, resp.StatusCode); err != nil {
		_ = resp.Body.Close()
		cancel()
		return nil, err
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// Exists implements Fetcher with a HEAD request.
func (f *HTTPFetcher) Exists(ctx context.Context, s *store.ArtifactStore, path string) (bool, error) {
	resp, cancel, err := f.do(ctx, http.MethodHead, s, path)
	if err != nil {
		return false, err
	}
	defer cancel()
	_ = resp.Body.Close()

	err = statusError(s, path, resp.StatusCode)
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func statusError(s *store.ArtifactStore, path string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return errors.WithContextMap(errors.New(errors.CodeNotFound, "remote content not found"), map[string]interface{}{
			"store": s.Key.String(),
			"path":  path,
		})
	default:
		return errors.WithContextMap(errors.Newf(errors.CodeTransportFailure, "unexpected status %d", status), map[string]interface{}{
			"store":  s.Key.String(),
			"path":   path,
			"status": status,
		})
	}
}

// cancelBody releases the request context when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}

// leveledLogger adapts logging.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *logging.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) {
	l.l.Error(context.Background(), msg, kv...)
}

func (l leveledLogger) Info(msg string, kv ...interface{}) {
	l.l.Debug(context.Background(), msg, kv...)
}

func (l leveledLogger) Debug(msg string, kv ...interface{}) {
	l.l.Debug(context.Background(), msg, kv...)
}

func (l leveledLogger) Warn(msg string, kv ...interface{}) {
	l.l.Warn(context.Background(), msg, kv...)
}

var (
	_ Fetcher                     = (*HTTPFetcher)(nil)
	_ retryablehttp.LeveledLogger = leveledLogger{}
)
