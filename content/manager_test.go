package content

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/generator/maven"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
	"github.com/jmgilman/go/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	metaPath = "org/foo/bar/maven-metadata.xml"
	jarPath  = "org/foo/bar/1.0/bar-1.0.jar"
)

// fakeFetcher serves remote content from a map keyed by "store/path".
type fakeFetcher struct {
	mu      sync.Mutex
	content map[string]string
	fail    error
	block   chan struct{}
	calls   atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{content: map[string]string{}}
}

func (f *fakeFetcher) set(key store.Key, p, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[key.String()+"/"+p] = data
}

func (f *fakeFetcher) lookup(ctx context.Context, s *store.ArtifactStore, p string) (string, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", errors.Wrap(ctx.Err(), errors.CodeCanceled, "fetch canceled")
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	data, ok := f.content[s.Key.String()+"/"+p]
	if !ok {
		return "", errors.New(errors.CodeNotFound, "not found upstream")
	}
	return data, nil
}

func (f *fakeFetcher) Fetch(ctx context.Context, s *store.ArtifactStore, p string) (io.ReadCloser, error) {
	data, err := f.lookup(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (f *fakeFetcher) Exists(ctx context.Context, s *store.ArtifactStore, p string) (bool, error) {
	_, err := f.lookup(ctx, s, p)
	if errors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

type fixture struct {
	mgr      *Manager
	registry *store.MemoryRegistry
	accessor *transfer.Accessor
	fetcher  *fakeFetcher
}

func newFixture(t *testing.T, stores []*store.ArtifactStore, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		registry: store.NewMemoryRegistry(stores...),
		fetcher:  newFakeFetcher(),
	}
	f.accessor = transfer.NewAccessor(billy.NewMemory(), transfer.WithFetcher(f.fetcher))

	mgr, err := NewManager(f.registry, f.accessor, opts...)
	require.NoError(t, err)
	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(func() { _ = mgr.Close() })
	f.mgr = mgr
	return f
}

// seed writes straight to storage, skipping hooks and invalidation.
func (f *fixture) seed(t *testing.T, key store.Key, p, data string) {
	t.Helper()
	require.NoError(t, f.accessor.Transfer(key, p).Write([]byte(data)))
}

func (f *fixture) get(t *testing.T, key store.Key, p string) string {
	t.Helper()
	tr, err := f.mgr.Retrieve(context.Background(), key, p)
	require.NoError(t, err)
	data, err := tr.ReadAll()
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) cached(t *testing.T, key store.Key, p string) bool {
	t.Helper()
	ok, err := f.accessor.Transfer(key, p).Exists()
	require.NoError(t, err)
	return ok
}

func metadataDoc(updated string, versions ...string) string {
	var b strings.Builder
	b.WriteString("<metadata><groupId>org.foo</groupId><artifactId>bar</artifactId><versioning><versions>")
	for _, v := range versions {
		fmt.Fprintf(&b, "<version>%s</version>", v)
	}
	fmt.Fprintf(&b, "</versions><lastUpdated>%s</lastUpdated></versioning></metadata>", updated)
	return b.String()
}

func versionsOf(t *testing.T, doc string) []string {
	t.Helper()
	md, err := maven.ParseMetadata([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, md.Versioning)
	return md.Versioning.Versions
}

func TestNewManager_RequiresRegistryAndAccessor(t *testing.T) {
	_, err := NewManager(nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestManager_RetrieveConcrete(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	disabled := store.NewHosted(store.PackageMaven, "off")
	disabled.Disabled = true
	masked := store.NewHosted(store.PackageMaven, "masked")
	masked.PathMaskPatterns = []string{"com/acme/"}

	f := newFixture(t, []*store.ArtifactStore{hosted, disabled, masked})
	ctx := context.Background()
	f.seed(t, hosted.Key, jarPath, "jar")
	f.seed(t, disabled.Key, jarPath, "jar")
	f.seed(t, masked.Key, jarPath, "jar")

	assert.Equal(t, "jar", f.get(t, hosted.Key, jarPath))

	tests := []struct {
		name string
		key  store.Key
		path string
		code errors.ErrorCode
	}{
		{"missing path", hosted.Key, "org/foo/bar/2.0/bar-2.0.jar", errors.CodeNotFound},
		{"directory path", hosted.Key, "org/foo/bar/", errors.CodeNotFound},
		{"disabled store", disabled.Key, jarPath, errors.CodeNotFound},
		{"masked path", masked.Key, jarPath, errors.CodeNotFound},
		{"unknown store", store.NewKey(store.PackageMaven, store.Hosted, "nope"), jarPath, errors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mgr.Retrieve(ctx, tt.key, tt.path)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestManager_GroupPrecedence(t *testing.T) {
	a := store.NewHosted(store.PackageMaven, "a")
	b := store.NewHosted(store.PackageMaven, "b")
	inner := store.NewGroup(store.PackageMaven, "inner", a.Key)
	group := store.NewGroup(store.PackageMaven, "public", b.Key, inner.Key, a.Key)

	f := newFixture(t, []*store.ArtifactStore{a, b, inner, group})
	f.seed(t, a.Key, jarPath, "from-a")
	f.seed(t, b.Key, jarPath, "from-b")
	f.seed(t, a.Key, "org/foo/bar/1.0/bar-1.0.pom", "pom-a")

	assert.Equal(t, "from-b", f.get(t, group.Key, jarPath))
	assert.Equal(t, "pom-a", f.get(t, group.Key, "org/foo/bar/1.0/bar-1.0.pom"))

	members, err := f.mgr.Resolve(context.Background(), group.Key)
	require.NoError(t, err)
	assert.Equal(t, []store.Key{b.Key, a.Key}, store.Keys(members))
}

func TestManager_GroupCycle(t *testing.T) {
	one := store.NewGroup(store.PackageMaven, "one", store.NewKey(store.PackageMaven, store.Group, "two"))
	two := store.NewGroup(store.PackageMaven, "two", one.Key)

	f := newFixture(t, []*store.ArtifactStore{one, two})
	_, err := f.mgr.Retrieve(context.Background(), one.Key, jarPath)
	require.Error(t, err)
	assert.True(t, errors.IsResolution(err))

	_, err = f.mgr.Store(context.Background(), one.Key, jarPath, []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsResolution(err))
}

func TestManager_GroupMerge(t *testing.T) {
	a := store.NewHosted(store.PackageMaven, "a")
	b := store.NewHosted(store.PackageMaven, "b")
	group := store.NewGroup(store.PackageMaven, "public", a.Key, b.Key)

	f := newFixture(t, []*store.ArtifactStore{a, b, group})
	f.seed(t, a.Key, metaPath, metadataDoc("20240101000000", "1.0", "1.1"))
	f.seed(t, b.Key, metaPath, metadataDoc("20240201000000", "1.1", "2.0"))

	first := f.get(t, group.Key, metaPath)
	assert.Equal(t, []string{"1.0", "1.1", "2.0"}, versionsOf(t, first))
	assert.Contains(t, first, "<lastUpdated>20240201000000</lastUpdated>")
	assert.True(t, f.cached(t, group.Key, metaPath))

	info, err := f.mgr.Merges().Info(group.Key, metaPath)
	require.NoError(t, err)
	assert.Equal(t, maven.Name, info.Generator)
	assert.Len(t, info.Sources, 2)

	t.Run("regeneration is byte identical", func(t *testing.T) {
		removed, err := f.mgr.Merges().Clear(context.Background(), group.Key, metaPath)
		require.NoError(t, err)
		require.True(t, removed)
		assert.Equal(t, first, f.get(t, group.Key, metaPath))
	})

	t.Run("checksum matches merged content", func(t *testing.T) {
		_, err := f.mgr.Merges().Clear(context.Background(), group.Key, metaPath)
		require.NoError(t, err)

		sum := f.get(t, group.Key, metaPath+".sha1")
		assert.Equal(t, generator.SHA1.Sum([]byte(f.get(t, group.Key, metaPath))), sum)
	})
}

func TestManager_GroupMergeFromPoms(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	hosted.AllowSnapshots = true
	group := store.NewGroup(store.PackageMaven, "public", hosted.Key)

	f := newFixture(t, []*store.ArtifactStore{hosted, group})
	ctx := context.Background()
	for _, v := range []string{"1.0", "1.1"} {
		_, err := f.mgr.Store(ctx, hosted.Key, fmt.Sprintf("org/foo/bar/%s/bar-%s.pom", v, v), []byte("<project/>"))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"1.0", "1.1"}, versionsOf(t, f.get(t, group.Key, metaPath)))

	_, err := f.mgr.Store(ctx, hosted.Key, "org/foo/bar/2.0/bar-2.0.pom", []byte("<project/>"))
	require.NoError(t, err)
	assert.False(t, f.cached(t, group.Key, metaPath))
	assert.Equal(t, []string{"1.0", "1.1", "2.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))
}

func TestManager_PartialFailureMerge(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	remote := store.NewRemote(store.PackageMaven, "central", "https://repo.example.com")
	group := store.NewGroup(store.PackageMaven, "public", remote.Key, hosted.Key)

	f := newFixture(t, []*store.ArtifactStore{hosted, remote, group})
	f.fetcher.fail = errors.New(errors.CodeTransportFailure, "connection refused")
	f.seed(t, hosted.Key, metaPath, metadataDoc("20240101000000", "1.0"))

	assert.Equal(t, []string{"1.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))

	info, err := f.mgr.Merges().Info(group.Key, metaPath)
	require.NoError(t, err)
	require.Len(t, info.Sources, 1)
	assert.Equal(t, hosted.Key.String(), info.Sources[0].Store)
}

func TestManager_InvalidationCascade(t *testing.T) {
	x := store.NewHosted(store.PackageMaven, "x")
	other := store.NewHosted(store.PackageMaven, "other")
	a := store.NewGroup(store.PackageMaven, "a", x.Key)
	b := store.NewGroup(store.PackageMaven, "b", a.Key)
	c := store.NewGroup(store.PackageMaven, "c", b.Key)
	unrelated := store.NewGroup(store.PackageMaven, "unrelated", other.Key)

	f := newFixture(t, []*store.ArtifactStore{x, other, a, b, c, unrelated})
	ctx := context.Background()
	f.seed(t, x.Key, metaPath, metadataDoc("20240101000000", "1.0"))
	f.seed(t, other.Key, metaPath, metadataDoc("20240101000000", "9.0"))

	var events []Event
	require.NoError(t, f.mgr.Subscribe(EventInvalidated, func(e Event) { events = append(events, e) }))

	for _, g := range []*store.ArtifactStore{a, b, c, unrelated} {
		f.get(t, g.Key, metaPath)
		require.True(t, f.cached(t, g.Key, metaPath))
	}

	_, err := f.mgr.Store(ctx, x.Key, metaPath, []byte(metadataDoc("20240301000000", "1.0", "2.0")))
	require.NoError(t, err)

	for _, g := range []*store.ArtifactStore{a, b, c} {
		assert.False(t, f.cached(t, g.Key, metaPath), g.Key.String())
	}
	assert.True(t, f.cached(t, unrelated.Key, metaPath))
	assert.Equal(t, []string{"1.0", "2.0"}, versionsOf(t, f.get(t, c.Key, metaPath)))

	require.Len(t, events, 1)
	assert.Equal(t, x.Key, events[0].Store)
	assert.ElementsMatch(t, []store.Key{a.Key, b.Key, c.Key}, events[0].Groups)
	assert.Equal(t, []string{metaPath}, events[0].Paths)
}

func TestManager_RemoteNFC(t *testing.T) {
	remote := store.NewRemote(store.PackageMaven, "central", "https://repo.example.com")
	f := newFixture(t, []*store.ArtifactStore{remote})
	ctx := context.Background()

	_, err := f.mgr.Retrieve(ctx, remote.Key, jarPath)
	require.True(t, errors.IsNotFound(err))
	assert.Equal(t, int32(1), f.fetcher.calls.Load())
	assert.True(t, f.mgr.NFC().IsMissing(remote.Key, jarPath))

	_, err = f.mgr.Retrieve(ctx, remote.Key, jarPath)
	require.True(t, errors.IsNotFound(err))
	assert.Equal(t, int32(1), f.fetcher.calls.Load(), "second miss is answered by the cache")

	ok, err := f.mgr.Exists(ctx, remote.Key, jarPath)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), f.fetcher.calls.Load())

	f.fetcher.set(remote.Key, jarPath, "jar")
	f.mgr.NFC().ClearMissing(remote.Key, jarPath)
	assert.Equal(t, "jar", f.get(t, remote.Key, jarPath))
	assert.False(t, f.mgr.NFC().IsMissing(remote.Key, jarPath))

	// Cached in storage now; no further fetch.
	assert.Equal(t, "jar", f.get(t, remote.Key, jarPath))
	assert.Equal(t, int32(2), f.fetcher.calls.Load())
}

func TestManager_GroupNFCClearedOnStore(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	group := store.NewGroup(store.PackageMaven, "public", hosted.Key)
	f := newFixture(t, []*store.ArtifactStore{hosted, group})
	ctx := context.Background()

	_, err := f.mgr.Retrieve(ctx, group.Key, metaPath)
	require.True(t, errors.IsNotFound(err))
	assert.True(t, f.mgr.NFC().IsMissing(group.Key, metaPath))

	_, err = f.mgr.Store(ctx, hosted.Key, metaPath, []byte(metadataDoc("20240101000000", "1.0")))
	require.NoError(t, err)
	assert.False(t, f.mgr.NFC().IsMissing(group.Key, metaPath))
	assert.Equal(t, []string{"1.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))
}

func TestManager_GroupChecksumNFC(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	group := store.NewGroup(store.PackageMaven, "public", hosted.Key)
	f := newFixture(t, []*store.ArtifactStore{hosted, group})
	ctx := context.Background()

	for _, alg := range generator.Algorithms {
		_, err := f.mgr.Retrieve(ctx, group.Key, metaPath+alg.Suffix())
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err), "got %v", err)
	}
	assert.True(t, f.mgr.NFC().IsMissing(group.Key, metaPath))

	_, err := f.mgr.Store(ctx, hosted.Key, metaPath, []byte(metadataDoc("20240101000000", "1.0")))
	require.NoError(t, err)
	assert.False(t, f.mgr.NFC().IsMissing(group.Key, metaPath))

	sum := f.get(t, group.Key, metaPath+".sha1")
	assert.Equal(t, generator.SHA1.Sum([]byte(f.get(t, group.Key, metaPath))), sum)
}

func TestManager_RetrieveFirstAndAll(t *testing.T) {
	a := store.NewHosted(store.PackageMaven, "a")
	b := store.NewHosted(store.PackageMaven, "b")
	c := store.NewHosted(store.PackageMaven, "c")
	f := newFixture(t, []*store.ArtifactStore{a, b, c})
	ctx := context.Background()
	f.seed(t, b.Key, jarPath, "from-b")
	f.seed(t, c.Key, jarPath, "from-c")

	tr, err := f.mgr.RetrieveFirst(ctx, []store.Key{a.Key, b.Key, c.Key}, jarPath)
	require.NoError(t, err)
	assert.Equal(t, b.Key, tr.Key())

	all, err := f.mgr.RetrieveAll(ctx, []store.Key{a.Key, b.Key, c.Key}, jarPath)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.Key, all[0].Key())
	assert.Equal(t, c.Key, all[1].Key())

	_, err = f.mgr.RetrieveFirst(ctx, []store.Key{a.Key}, jarPath)
	assert.True(t, errors.IsNotFound(err))
}

func TestManager_Overloaded(t *testing.T) {
	remote := store.NewRemote(store.PackageMaven, "central", "https://repo.example.com")
	pool := worker.NewPool(worker.Config{Workers: 1, QueueSize: 1})
	f := newFixture(t, []*store.ArtifactStore{remote}, WithPool(pool))
	f.fetcher.block = make(chan struct{})
	f.fetcher.set(remote.Key, jarPath, "jar")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.mgr.Retrieve(ctx, remote.Key, jarPath)
		}()
		if i == 0 {
			require.Eventually(t, func() bool { return f.mgr.Stats().Active == 1 }, time.Second, 5*time.Millisecond)
		}
	}
	require.Eventually(t, func() bool { return f.mgr.Stats().QueueDepth == 1 }, time.Second, 5*time.Millisecond)

	_, err := f.mgr.Retrieve(ctx, remote.Key, jarPath)
	require.Error(t, err)
	assert.True(t, errors.IsOverloaded(err))

	close(f.fetcher.block)
	wg.Wait()
}

func TestManager_Metrics(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	a := store.NewHosted(store.PackageMaven, "a")
	group := store.NewGroup(store.PackageMaven, "public", a.Key)
	reg := prometheus.NewRegistry()
	f := newFixture(t, []*store.ArtifactStore{hosted, a, group}, WithRegisterer(reg))
	ctx := context.Background()
	f.seed(t, hosted.Key, jarPath, "jar")
	f.seed(t, a.Key, metaPath, metadataDoc("20240101000000", "1.0"))

	f.get(t, hosted.Key, jarPath)
	_, _ = f.mgr.Retrieve(ctx, hosted.Key, "missing.jar")
	f.get(t, group.Key, metaPath)
	f.get(t, group.Key, metaPath)

	m := f.mgr.metrics
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("retrieve", outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("retrieve", outcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mergeMisses.WithLabelValues(maven.Name)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mergeHits.WithLabelValues(maven.Name)))

	_, err := f.mgr.Store(ctx, a.Key, metaPath, []byte(metadataDoc("20240201000000", "2.0")))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidations))
}

func TestManager_AccessEvents(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	f := newFixture(t, []*store.ArtifactStore{hosted}, WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	f.seed(t, hosted.Key, jarPath, "jar")

	var got []Event
	handler := func(e Event) { got = append(got, e) }
	require.NoError(t, f.mgr.Subscribe(EventAccessed, handler))

	ctx := WithMetadata(context.Background(), Metadata{MetaRequestID: "req-1"})
	_, err := f.mgr.Retrieve(ctx, hosted.Key, jarPath)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, hosted.Key, got[0].Store)
	assert.Equal(t, jarPath, got[0].Path)
	assert.Equal(t, "req-1", got[0].RequestID)
	assert.Equal(t, 2024, got[0].Time.Year())

	require.NoError(t, f.mgr.Unsubscribe(EventAccessed, handler))
	_, err = f.mgr.Retrieve(ctx, hosted.Key, jarPath)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
