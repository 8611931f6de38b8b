package content

import (
	"context"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var metadataNames = []string{
	"maven-metadata.xml",
	"maven-metadata.xml.md5",
	"maven-metadata.xml.sha1",
	"maven-metadata.xml.sha256",
}

func TestManager_List(t *testing.T) {
	a := store.NewHosted(store.PackageMaven, "a")
	b := store.NewHosted(store.PackageMaven, "b")
	masked := store.NewHosted(store.PackageMaven, "masked")
	masked.PathMaskPatterns = []string{"com/acme/"}
	group := store.NewGroup(store.PackageMaven, "public", a.Key, b.Key, masked.Key)

	f := newFixture(t, []*store.ArtifactStore{a, b, masked, group})
	ctx := context.Background()
	f.seed(t, a.Key, "org/foo/bar/1.0/bar-1.0.pom", "<project/>")
	f.seed(t, b.Key, "org/foo/bar/2.0/bar-2.0.jar", "jar")
	f.seed(t, masked.Key, "org/foo/bar/3.0/bar-3.0.jar", "jar")

	t.Run("hosted advertises metadata", func(t *testing.T) {
		names, err := f.mgr.List(ctx, a.Key, "org/foo/bar")
		require.NoError(t, err)
		assert.Equal(t, append([]string{"1.0/"}, metadataNames...), names)
	})

	t.Run("hosted without poms", func(t *testing.T) {
		names, err := f.mgr.List(ctx, b.Key, "org/foo/bar/")
		require.NoError(t, err)
		assert.Equal(t, []string{"2.0/"}, names)
	})

	t.Run("group unions members", func(t *testing.T) {
		names, err := f.mgr.List(ctx, group.Key, "org/foo/bar/")
		require.NoError(t, err)
		assert.Equal(t, append([]string{"1.0/", "2.0/"}, metadataNames...), names)
	})

	t.Run("missing directory", func(t *testing.T) {
		names, err := f.mgr.List(ctx, group.Key, "com/nothing/")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("sidecars are hidden", func(t *testing.T) {
		_, err := f.mgr.Retrieve(ctx, a.Key, metaPath)
		require.NoError(t, err)
		require.True(t, f.cached(t, a.Key, metaPath+generator.InfoSuffix))

		names, err := f.mgr.List(ctx, a.Key, "org/foo/bar/")
		require.NoError(t, err)
		assert.Equal(t, append([]string{"1.0/"}, metadataNames...), names)
	})
}

func TestManager_Exists(t *testing.T) {
	a := store.NewHosted(store.PackageMaven, "a")
	b := store.NewHosted(store.PackageMaven, "b")
	remote := store.NewRemote(store.PackageMaven, "central", "https://repo.example.com")
	group := store.NewGroup(store.PackageMaven, "public", remote.Key, a.Key, b.Key)

	f := newFixture(t, []*store.ArtifactStore{a, b, remote, group})
	ctx := context.Background()
	f.seed(t, b.Key, jarPath, "jar")
	f.seed(t, a.Key, "org/foo/bar/1.0/bar-1.0.pom", "<project/>")
	f.fetcher.set(remote.Key, "org/foo/baz/1.0/baz-1.0.jar", "jar")

	tests := []struct {
		name string
		key  store.Key
		path string
		want bool
	}{
		{"hosted hit", b.Key, jarPath, true},
		{"hosted miss", a.Key, jarPath, false},
		{"group hit", group.Key, jarPath, true},
		{"group via remote", group.Key, "org/foo/baz/1.0/baz-1.0.jar", true},
		{"group miss", group.Key, "org/foo/bar/9.0/bar-9.0.jar", false},
		{"generation is not triggered", group.Key, metaPath, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.mgr.Exists(ctx, tt.key, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	assert.False(t, f.cached(t, a.Key, metaPath))
	assert.True(t, f.mgr.NFC().IsMissing(remote.Key, jarPath))

	t.Run("transport failure reads as absent", func(t *testing.T) {
		f.fetcher.fail = errors.New(errors.CodeTransportFailure, "connection reset")
		ok, err := f.mgr.Exists(ctx, remote.Key, "org/foo/qux/1.0/qux-1.0.jar")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestManager_Digest(t *testing.T) {
	hosted := store.NewHosted(store.PackageMaven, "local")
	f := newFixture(t, []*store.ArtifactStore{hosted})
	ctx := context.Background()
	f.seed(t, hosted.Key, jarPath, "hello")

	sums, err := f.mgr.Digest(ctx, hosted.Key, jarPath)
	require.NoError(t, err)
	assert.Equal(t, map[generator.Algorithm]string{
		generator.MD5:    "5d41402abc4b2a76b9719d911017c592",
		generator.SHA1:   "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		generator.SHA256: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
	}, sums)

	f.seed(t, hosted.Key, jarPath+".sha1", "0123456789abcdef  bar-1.0.jar\n")

	sums, err = f.mgr.Digest(ctx, hosted.Key, jarPath, generator.SHA1)
	require.NoError(t, err)
	assert.Equal(t, map[generator.Algorithm]string{generator.SHA1: "0123456789abcdef"}, sums)

	forced := WithMetadata(ctx, Metadata{MetaForceChecksum: "true"})
	sums, err = f.mgr.Digest(forced, hosted.Key, jarPath, generator.SHA1)
	require.NoError(t, err)
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", sums[generator.SHA1])

	_, err = f.mgr.Digest(ctx, hosted.Key, "missing.jar")
	assert.True(t, errors.IsNotFound(err))
}
