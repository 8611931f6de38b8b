package maven

import (
	"sort"
	"time"

	"github.com/jmgilman/go/generator"
)

// Merge combines maven-metadata.xml documents given in member order.
//
// Versions are unioned and sorted by version order; latest is the highest
// version and release the highest non pre-release one. Coordinates, the
// snapshot block and each plugin prefix come from the first input that has
// them. lastUpdated is the newest value among the inputs, falling back to
// the inputs' modification times. Inputs that do not parse are skipped.
func Merge(inputs []generator.Input) (*generator.Result, error) {
	merged := &Metadata{}
	versioning := &Versioning{}

	seenVersions := make(map[string]bool)
	seenSnapshotFiles := make(map[SnapshotVersion]bool)
	seenPlugins := make(map[string]bool)

	var newest time.Time
	parsed := 0

	for _, in := range inputs {
		md, err := ParseMetadata(in.Data)
		if err != nil {
			continue
		}
		parsed++

		if merged.GroupID == "" {
			merged.GroupID = md.GroupID
		}
		if merged.ArtifactID == "" {
			merged.ArtifactID = md.ArtifactID
		}
		if merged.Version == "" {
			merged.Version = md.Version
		}
		if merged.ModelVersion == "" {
			merged.ModelVersion = md.ModelVersion
		}

		for _, p := range md.Plugins {
			if !seenPlugins[p.Prefix] {
				seenPlugins[p.Prefix] = true
				merged.Plugins = append(merged.Plugins, p)
			}
		}

		ts, ok := md.LastUpdatedTime()
		if !ok {
			ts = in.ModTime.UTC().Truncate(time.Second)
		}
		if ts.After(newest) {
			newest = ts
		}

		v := md.Versioning
		if v == nil {
			continue
		}
		for _, ver := range v.Versions {
			if ver != "" && !seenVersions[ver] {
				seenVersions[ver] = true
				versioning.Versions = append(versioning.Versions, ver)
			}
		}
		if versioning.Snapshot == nil && v.Snapshot != nil {
			snap := *v.Snapshot
			versioning.Snapshot = &snap
		}
		for _, sv := range v.SnapshotVersions {
			if !seenSnapshotFiles[sv] {
				seenSnapshotFiles[sv] = true
				versioning.SnapshotVersions = append(versioning.SnapshotVersions, sv)
			}
		}
	}

	if parsed == 0 {
		return nil, nil
	}

	SortVersions(versioning.Versions)
	for i := len(versioning.Versions) - 1; i >= 0; i-- {
		ver := versioning.Versions[i]
		if versioning.Latest == "" {
			versioning.Latest = ver
		}
		if !IsPreRelease(ver) {
			versioning.Release = ver
			break
		}
	}

	sort.SliceStable(versioning.SnapshotVersions, func(i, j int) bool {
		a, b := versioning.SnapshotVersions[i], versioning.SnapshotVersions[j]
		if c := CompareVersions(a.Value, b.Value); c != 0 {
			return c < 0
		}
		if a.Extension != b.Extension {
			return a.Extension < b.Extension
		}
		if a.Classifier != b.Classifier {
			return a.Classifier < b.Classifier
		}
		return a.Updated < b.Updated
	})
	sort.SliceStable(merged.Plugins, func(i, j int) bool {
		return merged.Plugins[i].Prefix < merged.Plugins[j].Prefix
	})

	if !newest.IsZero() {
		versioning.LastUpdated = FormatTimestamp(newest)
	}
	if len(versioning.Versions) > 0 || versioning.Snapshot != nil || len(versioning.SnapshotVersions) > 0 || versioning.LastUpdated != "" {
		merged.Versioning = versioning
	}

	data, err := merged.Marshal()
	if err != nil {
		return nil, err
	}
	return &generator.Result{Data: data, LastModified: newest}, nil
}
