// Package nfc implements the not-found cache: a negative cache of
// (store, path) lookups that failed, consulted before retrying expensive
// remote fetches.
//
// Entries live in a bigcache instance. Expiry is tracked per entry rather
// than through bigcache's life window so each store can override the
// engine-wide timeout. A timeout of zero keeps entries until they are
// cleared.
package nfc

import (
	"context"
	"encoding/binary"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	perrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// keySep separates the store key from the path in cache keys. Neither
// component can contain it.
const keySep = "\x00"

// neverExpires is the life window handed to bigcache; expiry is enforced by
// Sweep and IsMissing instead.
const neverExpires = 100 * 365 * 24 * time.Hour

// Config configures the cache.
type Config struct {
	// Timeout is how long a missing entry is trusted. Zero means forever.
	Timeout time.Duration

	// SweepInterval is how often Start removes expired entries.
	SweepInterval time.Duration

	// Shards is the bigcache shard count. Must be a power of two.
	Shards int
}

// DefaultConfig returns a non-expiring cache swept every five minutes.
func DefaultConfig() Config {
	return Config{
		SweepInterval: 5 * time.Minute,
		Shards:        64,
	}
}

func (c Config) validate() error {
	if c.Timeout < 0 {
		return perrors.New(perrors.CodeInvalidConfig, "nfc timeout cannot be negative")
	}
	if c.SweepInterval <= 0 {
		return perrors.New(perrors.CodeInvalidConfig, "nfc sweep interval must be positive")
	}
	if c.Shards <= 0 || c.Shards&(c.Shards-1) != 0 {
		return perrors.Newf(perrors.CodeInvalidConfig, "nfc shards must be a power of two, got %d", c.Shards)
	}
	return nil
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Cache) { c.logger = logging.OrNop(l) }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache is a concurrency-safe not-found cache.
type Cache struct {
	cfg    Config
	cache  *bigcache.BigCache
	logger *logging.Logger
	now    func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a cache.
func New(cfg Config, opts ...Option) (*Cache, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	bc := bigcache.DefaultConfig(neverExpires)
	bc.Shards = cfg.Shards
	bc.CleanWindow = 0
	bc.MaxEntrySize = 256
	bc.Verbose = false

	inner, err := bigcache.New(context.Background(), bc)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CodeInternal, "failed to create nfc storage")
	}

	c := &Cache{
		cfg:    cfg,
		cache:  inner,
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func entryKey(key store.Key, path string) string {
	return key.String() + keySep + normalize(path)
}

func splitEntryKey(k string) (store.Key, string, bool) {
	keyPart, path, ok := strings.Cut(k, keySep)
	if !ok {
		return store.Key{}, "", false
	}
	key, err := store.ParseKey(keyPart)
	if err != nil {
		return store.Key{}, "", false
	}
	return key, path, true
}

func normalize(path string) string {
	return strings.TrimPrefix(path, "/")
}

// timeoutFor returns the effective timeout for s.
func (c *Cache) timeoutFor(s *store.ArtifactStore) time.Duration {
	if s != nil && s.NFCTimeout > 0 {
		return s.NFCTimeout
	}
	return c.cfg.Timeout
}

// AddMissing records that path was not found in s.
func (c *Cache) AddMissing(ctx context.Context, s *store.ArtifactStore, path string) {
	var expiry int64
	if timeout := c.timeoutFor(s); timeout > 0 {
		expiry = c.now().Add(timeout).UnixNano()
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(expiry))

	if err := c.cache.Set(entryKey(s.Key, path), value); err != nil {
		c.logger.WithStore(s.Key).WithPath(path).Warn(ctx, "failed to record missing path", "error", err)
		return
	}
	c.logger.WithStore(s.Key).WithPath(path).Debug(ctx, "recorded missing path")
}

// IsMissing reports whether path is recorded as missing in key and the
// entry has not expired.
func (c *Cache) IsMissing(key store.Key, path string) bool {
	k := entryKey(key, path)
	value, err := c.cache.Get(k)
	if err != nil {
		return false
	}
	if c.expired(value) {
		_ = c.cache.Delete(k)
		return false
	}
	return true
}

func (c *Cache) expired(value []byte) bool {
	if len(value) != 8 {
		return true
	}
	expiry := int64(binary.BigEndian.Uint64(value))
	return expiry != 0 && c.now().UnixNano() >= expiry
}

// ClearMissing forgets a single entry.
func (c *Cache) ClearMissing(key store.Key, path string) {
	err := c.cache.Delete(entryKey(key, path))
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		c.logger.Warn(context.Background(), "failed to clear missing path", "store", key.String(), "path", path, "error", err)
	}
}

// ClearStore forgets every entry for key.
func (c *Cache) ClearStore(key store.Key) {
	prefix := key.String() + keySep
	for _, k := range c.keys(func(k string) bool { return strings.HasPrefix(k, prefix) }) {
		_ = c.cache.Delete(k)
	}
}

// ClearAll empties the cache.
func (c *Cache) ClearAll() {
	_ = c.cache.Reset()
}

// Missing returns the unexpired missing paths for key, sorted.
func (c *Cache) Missing(key store.Key) []string {
	return c.AllMissing()[key]
}

// AllMissing returns every unexpired entry grouped by store, paths sorted.
func (c *Cache) AllMissing() map[store.Key][]string {
	out := make(map[store.Key][]string)
	c.each(func(k string, value []byte) {
		if c.expired(value) {
			return
		}
		if key, path, ok := splitEntryKey(k); ok {
			out[key] = append(out[key], path)
		}
	})
	for _, paths := range out {
		sort.Strings(paths)
	}
	return out
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache) Sweep(ctx context.Context) int {
	var expired []string
	c.each(func(k string, value []byte) {
		if c.expired(value) {
			expired = append(expired, k)
		}
	})

	for _, k := range expired {
		_ = c.cache.Delete(k)
	}
	if len(expired) > 0 {
		c.logger.WithOperation(logging.OpNFCSweep).Debug(ctx, "swept expired entries", "count", len(expired))
	}
	return len(expired)
}

func (c *Cache) keys(keep func(string) bool) []string {
	var out []string
	c.each(func(k string, _ []byte) {
		if keep(k) {
			out = append(out, k)
		}
	})
	return out
}

func (c *Cache) each(fn func(key string, value []byte)) {
	it := c.cache.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			continue
		}
		fn(entry.Key(), entry.Value())
	}
}

// Start sweeps expired entries every SweepInterval until ctx is done or
// Close is called. Calling Start on a running cache is a no-op.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.stopped = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep(ctx)
			}
		}
	}(c.stopped)
}

// Close stops the sweeper and releases the cache.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		<-c.stopped
		c.cancel = nil
	}
	c.mu.Unlock()

	return c.cache.Close()
}
