package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifactPath(t *testing.T) {
	tests := []struct {
		path string
		want ArtifactPathInfo
	}{
		{
			path: "org/commonjava/util/partyline/1.0/partyline-1.0.jar",
			want: ArtifactPathInfo{
				GroupID: "org.commonjava.util", ArtifactID: "partyline", Version: "1.0",
				Type: "jar", File: "partyline-1.0.jar",
			},
		},
		{
			path: "/org/foo/bar/2.1/bar-2.1-sources.jar",
			want: ArtifactPathInfo{
				GroupID: "org.foo", ArtifactID: "bar", Version: "2.1",
				Classifier: "sources", Type: "jar", File: "bar-2.1-sources.jar",
			},
		},
		{
			path: "org/foo/bar/1.0-SNAPSHOT/bar-1.0-20240102.030405-7.pom",
			want: ArtifactPathInfo{
				GroupID: "org.foo", ArtifactID: "bar", Version: "1.0-20240102.030405-7",
				Type: "pom", File: "bar-1.0-20240102.030405-7.pom",
			},
		},
		{
			path: "org/foo/bar/1.0/bar-1.0.pom.sha1",
			want: ArtifactPathInfo{
				GroupID: "org.foo", ArtifactID: "bar", Version: "1.0",
				Type: "pom.sha1", File: "bar-1.0.pom.sha1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ParseArtifactPath(tt.path)
			require.True(t, ok)
			tt.want.FullPath = tt.path
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArtifactPath_NotArtifacts(t *testing.T) {
	for _, p := range []string{
		"org/foo/bar/maven-metadata.xml",
		"org/foo/bar/1.0/",
		"bar-1.0.jar",
		"org/foo/bar/1.0/other-1.0.jar",
		"jquery/package.json",
	} {
		_, ok := ParseArtifactPath(p)
		assert.False(t, ok, p)
	}
}

func TestPathQuality(t *testing.T) {
	tests := []struct {
		path string
		want Quality
	}{
		{"org/foo/bar/1.0/bar-1.0.jar", QualityRelease},
		{"org/foo/bar/1.0-SNAPSHOT/bar-1.0-SNAPSHOT.jar", QualitySnapshot},
		{"org/foo/bar/1.0-SNAPSHOT/bar-1.0-20240102.030405-7.jar", QualitySnapshot},
		{"org/foo/bar/maven-metadata.xml", QualityMetadata},
		{"jquery/package.json", QualityMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, PathQuality(tt.path))
		})
	}
}

func TestAccepts(t *testing.T) {
	h := NewHosted("maven", "releases")
	assert.True(t, h.Accepts(QualityRelease))
	assert.False(t, h.Accepts(QualitySnapshot))
	assert.True(t, h.Accepts(QualityMetadata))

	h.AllowReleases, h.AllowSnapshots = false, true
	assert.False(t, h.Accepts(QualityRelease))
	assert.True(t, h.Accepts(QualitySnapshot))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "maven-metadata.xml", Filename("org/foo/maven-metadata.xml"))
	assert.Equal(t, "1.0", Filename("org/foo/1.0/"))
}
