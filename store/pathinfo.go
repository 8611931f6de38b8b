package store

import (
	"path"
	"regexp"
	"strings"
)

// Quality classifies a path for write suitability.
type Quality string

const (
	// QualityRelease is a released artifact.
	QualityRelease Quality = "release"
	// QualitySnapshot is a snapshot artifact.
	QualitySnapshot Quality = "snapshot"
	// QualityMetadata is anything that is not an artifact file, such as
	// maven-metadata.xml or package.json.
	QualityMetadata Quality = "metadata"
)

var (
	// group/artifact/version/file with at least one group segment.
	layoutPattern = regexp.MustCompile(`^/?((?:[^/]+/)*[^/]+)/([^/]+)/([^/]+)/([^/]+)$`)

	timestampPattern = regexp.MustCompile(`^(.+-[0-9]{8}\.[0-9]{6}-[0-9]+)((?:-[^.]+)?\..+)$`)

	tailPattern = regexp.MustCompile(`^(?:-([^.]+))?\.(.+)$`)

	snapshotVersionPattern = regexp.MustCompile(`^(.+)-([0-9]{8}\.[0-9]{6})-([0-9]+)$`)
)

// SnapshotSuffix marks a snapshot version.
const SnapshotSuffix = "-SNAPSHOT"

// ArtifactPathInfo is the coordinate parsed from a Maven repository path.
type ArtifactPathInfo struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Type       string
	File       string
	FullPath   string
}

// ParseArtifactPath parses a Maven layout path. It returns false for paths
// that are not artifact files, including metadata and directories.
func ParseArtifactPath(p string) (ArtifactPathInfo, bool) {
	full := strings.ReplaceAll(p, "\\", "/")

	m := layoutPattern.FindStringSubmatch(full)
	if m == nil {
		return ArtifactPathInfo{}, false
	}
	groupPath, artifactID, version, file := m[1], m[2], m[3], m[4]

	rest, ok := strings.CutPrefix(file, artifactID+"-")
	if !ok {
		return ArtifactPathInfo{}, false
	}

	fileVersion, tail := "", ""
	if t, ok := strings.CutPrefix(rest, version); ok && tailPattern.MatchString(t) {
		fileVersion, tail = version, t
	} else if tm := timestampPattern.FindStringSubmatch(rest); tm != nil {
		fileVersion, tail = tm[1], tm[2]
	} else {
		return ArtifactPathInfo{}, false
	}

	tm := tailPattern.FindStringSubmatch(tail)
	if tm == nil {
		return ArtifactPathInfo{}, false
	}

	return ArtifactPathInfo{
		GroupID:    strings.ReplaceAll(groupPath, "/", "."),
		ArtifactID: artifactID,
		Version:    fileVersion,
		Classifier: tm[1],
		Type:       tm[2],
		File:       file,
		FullPath:   p,
	}, true
}

// IsSnapshot reports whether the artifact is a snapshot build.
func (i ArtifactPathInfo) IsSnapshot() bool {
	return IsSnapshotVersion(i.Version)
}

// IsSnapshotVersion reports whether v is -SNAPSHOT or a timestamped snapshot.
func IsSnapshotVersion(v string) bool {
	return strings.HasSuffix(v, SnapshotSuffix) || snapshotVersionPattern.MatchString(v)
}

// PathQuality classifies p. Paths that do not parse as artifacts are
// metadata.
func PathQuality(p string) Quality {
	info, ok := ParseArtifactPath(p)
	switch {
	case !ok:
		return QualityMetadata
	case info.IsSnapshot():
		return QualitySnapshot
	default:
		return QualityRelease
	}
}

// Accepts reports whether a hosted store may receive content of quality q.
func (s *ArtifactStore) Accepts(q Quality) bool {
	switch q {
	case QualityRelease:
		return s.AllowReleases
	case QualitySnapshot:
		return s.AllowSnapshots
	default:
		return true
	}
}

// Filename returns the last element of a slash path.
func Filename(p string) string {
	return path.Base(strings.TrimSuffix(p, "/"))
}
