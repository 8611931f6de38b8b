package maven

import (
	"testing"
	"time"

	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/store"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(name, data string) generator.Input {
	return generator.Input{
		Store: store.NewKey(store.PackageMaven, store.Hosted, name),
		Path:  "org/foo/bar/" + MetadataFilename,
		Data:  []byte(data),
	}
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

const (
	metaA = `<metadata>
  <groupId>org.foo</groupId>
  <artifactId>bar</artifactId>
  <versioning>
    <latest>1.0</latest>
    <release>1.0</release>
    <versions><version>1.0</version></versions>
    <lastUpdated>20240101000000</lastUpdated>
  </versioning>
</metadata>`

	metaB = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>org.foo</groupId>
  <artifactId>bar</artifactId>
  <versioning>
    <versions>
      <version>2.0-SNAPSHOT</version>
      <version>1.1</version>
      <version>1.0</version>
    </versions>
    <lastUpdated>20240301120000</lastUpdated>
  </versioning>
</metadata>`

	metaBroken = `<metadata><versioning>`
)

func TestMerge_Versions(t *testing.T) {
	result, err := Merge([]generator.Input{
		input("a", metaA),
		input("broken", metaBroken),
		input("b", metaB),
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	golden(t).Assert(t, "merge_versions", result.Data)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), result.LastModified)

	md, err := ParseMetadata(result.Data)
	require.NoError(t, err)
	assert.Equal(t, "2.0-SNAPSHOT", md.Versioning.Latest)
	assert.Equal(t, "1.1", md.Versioning.Release)
}

func TestMerge_Snapshots(t *testing.T) {
	a := `<metadata modelVersion="1.1.0">
  <groupId>org.foo</groupId>
  <artifactId>bar</artifactId>
  <version>1.0-SNAPSHOT</version>
  <versioning>
    <snapshot><timestamp>20240101.000000</timestamp><buildNumber>3</buildNumber></snapshot>
    <lastUpdated>20240101000000</lastUpdated>
    <snapshotVersions>
      <snapshotVersion><extension>pom</extension><value>1.0-20240101.000000-3</value><updated>20240101000000</updated></snapshotVersion>
      <snapshotVersion><extension>jar</extension><value>1.0-20240101.000000-3</value><updated>20240101000000</updated></snapshotVersion>
    </snapshotVersions>
  </versioning>
</metadata>`
	b := `<metadata>
  <groupId>org.foo</groupId>
  <artifactId>bar</artifactId>
  <version>1.0-SNAPSHOT</version>
  <versioning>
    <snapshot><timestamp>20231201.000000</timestamp><buildNumber>1</buildNumber></snapshot>
    <lastUpdated>20231201000000</lastUpdated>
    <snapshotVersions>
      <snapshotVersion><classifier>sources</classifier><extension>jar</extension><value>1.0-20231201.000000-1</value><updated>20231201000000</updated></snapshotVersion>
    </snapshotVersions>
  </versioning>
</metadata>`

	result, err := Merge([]generator.Input{input("a", a), input("b", b)})
	require.NoError(t, err)
	require.NotNil(t, result)

	golden(t).Assert(t, "merge_snapshots", result.Data)
}

func TestMerge_Deterministic(t *testing.T) {
	inputs := []generator.Input{input("a", metaA), input("b", metaB)}

	first, err := Merge(inputs)
	require.NoError(t, err)
	second, err := Merge(inputs)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, generator.SHA1.Sum(first.Data), generator.SHA1.Sum(second.Data))
}

func TestMerge_FallsBackToModTime(t *testing.T) {
	mod := time.Date(2024, 5, 6, 7, 8, 9, 500, time.UTC)
	in := input("a", `<metadata><groupId>g</groupId><artifactId>a</artifactId><versioning><versions><version>1.0</version></versions></versioning></metadata>`)
	in.ModTime = mod

	result, err := Merge([]generator.Input{in})
	require.NoError(t, err)

	md, err := ParseMetadata(result.Data)
	require.NoError(t, err)
	assert.Equal(t, "20240506070809", md.Versioning.LastUpdated)
	assert.Equal(t, mod.Truncate(time.Second), result.LastModified)
}

func TestMerge_NothingParses(t *testing.T) {
	result, err := Merge([]generator.Input{input("a", metaBroken), input("b", "not xml")})
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = Merge(nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMerge_FirstCoordinatesWin(t *testing.T) {
	result, err := Merge([]generator.Input{
		input("a", `<metadata><artifactId>bar</artifactId></metadata>`),
		input("b", `<metadata><groupId>org.foo</groupId><artifactId>other</artifactId></metadata>`),
	})
	require.NoError(t, err)

	md, err := ParseMetadata(result.Data)
	require.NoError(t, err)
	assert.Equal(t, "org.foo", md.GroupID)
	assert.Equal(t, "bar", md.ArtifactID)
	assert.Nil(t, md.Versioning)
}

func TestMerge_Plugins(t *testing.T) {
	result, err := Merge([]generator.Input{
		input("a", `<metadata><plugins><plugin><prefix>war</prefix><artifactId>maven-war-plugin</artifactId></plugin></plugins></metadata>`),
		input("b", `<metadata><plugins><plugin><prefix>war</prefix><artifactId>other-war</artifactId></plugin><plugin><prefix>compiler</prefix><artifactId>maven-compiler-plugin</artifactId></plugin></plugins></metadata>`),
	})
	require.NoError(t, err)

	md, err := ParseMetadata(result.Data)
	require.NoError(t, err)
	assert.Equal(t, []Plugin{
		{Prefix: "compiler", ArtifactID: "maven-compiler-plugin"},
		{Prefix: "war", ArtifactID: "maven-war-plugin"},
	}, md.Plugins)
}
