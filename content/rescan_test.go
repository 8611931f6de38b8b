package content

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmgilman/go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitRescan(t *testing.T, f *fixture) <-chan Event {
	t.Helper()
	done := make(chan Event, 4)
	require.NoError(t, f.mgr.Subscribe(EventRescanFinished, func(e Event) { done <- e }))
	return done
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rescan")
		return Event{}
	}
}

func TestManager_RescanHosted(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	group := store.NewGroup(store.PackageMaven, "public", hosted.Key)
	f := newFixture(t, []*store.ArtifactStore{hosted, group})
	ctx := context.Background()
	done := waitRescan(t, f)

	f.seed(t, hosted.Key, metaPath, metadataDoc("20240101000000", "1.0"))
	assert.Equal(t, []string{"1.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))

	// Changed behind the manager's back; the group merge is now stale.
	f.seed(t, hosted.Key, metaPath, metadataDoc("20240201000000", "1.0", "2.0"))
	f.seed(t, hosted.Key, jarPath, "jar")
	assert.Equal(t, []string{"1.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))

	require.NoError(t, f.mgr.Rescan(ctx, hosted.Key))
	e := recvEvent(t, done)
	require.NoError(t, e.Err)
	assert.Equal(t, hosted.Key, e.Store)
	assert.Equal(t, []string{jarPath, metaPath}, e.Paths)

	assert.False(t, f.cached(t, group.Key, metaPath))
	assert.Equal(t, []string{"1.0", "2.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))
	assert.Eventually(t, func() bool { return !f.mgr.Rescanning(hosted.Key) }, time.Second, 5*time.Millisecond)
}

func TestManager_RescanSkipsGeneratedFiles(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	f := newFixture(t, []*store.ArtifactStore{hosted})
	ctx := context.Background()
	done := waitRescan(t, f)

	_, err := f.mgr.Store(ctx, hosted.Key, "org/foo/bar/1.0/bar-1.0.pom", []byte("<project/>"))
	require.NoError(t, err)
	f.get(t, hosted.Key, metaPath)

	require.NoError(t, f.mgr.Rescan(ctx, hosted.Key))
	e := recvEvent(t, done)
	require.NoError(t, e.Err)
	assert.Equal(t, []string{"org/foo/bar/1.0/bar-1.0.pom"}, e.Paths)
}

func TestManager_RescanRemoteClearsNFC(t *testing.T) {
	remote := store.NewRemote(store.PackageMaven, "central", "https://repo.example.com")
	f := newFixture(t, []*store.ArtifactStore{remote})
	ctx := context.Background()
	done := waitRescan(t, f)

	_, err := f.mgr.Retrieve(ctx, remote.Key, jarPath)
	require.Error(t, err)
	require.True(t, f.mgr.NFC().IsMissing(remote.Key, jarPath))

	require.NoError(t, f.mgr.Rescan(ctx, remote.Key))
	recvEvent(t, done)
	assert.False(t, f.mgr.NFC().IsMissing(remote.Key, jarPath))
}

func TestManager_RescanGroup(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	group := store.NewGroup(store.PackageMaven, "public", hosted.Key)
	f := newFixture(t, []*store.ArtifactStore{hosted, group})
	ctx := context.Background()
	done := waitRescan(t, f)

	f.seed(t, hosted.Key, metaPath, metadataDoc("20240101000000", "1.0"))
	f.get(t, group.Key, metaPath)
	require.True(t, f.cached(t, group.Key, metaPath))

	require.NoError(t, f.mgr.RescanAll(ctx))
	for i := 0; i < 2; i++ {
		recvEvent(t, done)
	}
	assert.False(t, f.cached(t, group.Key, metaPath))
	assert.False(t, f.cached(t, group.Key, metaPath+".sha1"))
}

func TestManager_RescanGroupKeepsFreshMerges(t *testing.T) {
	const otherMeta = "org/foo/baz/maven-metadata.xml"
	hosted := store.NewHosted(store.PackageMaven, "local")
	group := store.NewGroup(store.PackageMaven, "public", hosted.Key)
	f := newFixture(t, []*store.ArtifactStore{hosted, group})
	ctx := context.Background()
	done := waitRescan(t, f)

	f.seed(t, hosted.Key, metaPath, metadataDoc("20240101000000", "1.0"))
	f.seed(t, hosted.Key, otherMeta, metadataDoc("20240101000000", "3.0"))
	f.get(t, group.Key, metaPath)
	f.get(t, group.Key, otherMeta)

	// Changed behind the manager's back.
	f.seed(t, hosted.Key, metaPath, metadataDoc("20240201000000", "1.0", "2.0"))

	require.NoError(t, f.mgr.Rescan(ctx, group.Key))
	e := recvEvent(t, done)
	require.NoError(t, e.Err)
	assert.Equal(t, group.Key, e.Store)
	assert.ElementsMatch(t, []string{metaPath, otherMeta}, e.Paths)

	assert.False(t, f.cached(t, group.Key, metaPath))
	assert.True(t, f.cached(t, group.Key, otherMeta))
	assert.Equal(t, []string{"1.0", "2.0"}, versionsOf(t, f.get(t, group.Key, metaPath)))
}

func TestManager_RescanNotStarted(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	registry := store.NewMemoryRegistry(hosted)
	f := newFixture(t, nil)

	mgr, err := NewManager(registry, f.accessor)
	require.NoError(t, err)
	assert.Error(t, mgr.Rescan(context.Background(), hosted.Key))
	assert.False(t, mgr.CancelRescan(hosted.Key))
}

func TestManager_RescanOnePerStore(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	f := newFixture(t, []*store.ArtifactStore{hosted})
	ctx := context.Background()
	f.seed(t, hosted.Key, jarPath, "jar")
	done := waitRescan(t, f)

	var started atomic.Int32
	running := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, f.mgr.Subscribe(EventRescanStarted, func(Event) {
		if started.Add(1) == 1 {
			close(running)
			<-release
		}
	}))

	require.NoError(t, f.mgr.Rescan(ctx, hosted.Key))
	select {
	case <-running:
	case <-time.After(5 * time.Second):
		t.Fatal("rescan did not start")
	}

	assert.True(t, f.mgr.Rescanning(hosted.Key))
	require.NoError(t, f.mgr.Rescan(ctx, hosted.Key))
	assert.True(t, f.mgr.Rescanning(hosted.Key))

	close(release)
	e := recvEvent(t, done)
	require.NoError(t, e.Err)
	assert.Equal(t, []string{jarPath}, e.Paths)
	assert.Equal(t, int32(1), started.Load())

	select {
	case e := <-done:
		t.Fatalf("unexpected second rescan of %s", e.Store)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Eventually(t, func() bool { return !f.mgr.Rescanning(hosted.Key) }, time.Second, 5*time.Millisecond)
}
