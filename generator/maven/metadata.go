package maven

import (
	"bytes"
	"encoding/xml"
	"time"
)

// MetadataFilename is the version index file name.
const MetadataFilename = "maven-metadata.xml"

// timestampLayout is the lastUpdated format.
const timestampLayout = "20060102150405"

// Metadata is a maven-metadata.xml document.
type Metadata struct {
	ModelVersion string
	GroupID      string
	ArtifactID   string
	Version      string
	Versioning   *Versioning
	Plugins      []Plugin
}

// Versioning lists the versions of an artifact.
type Versioning struct {
	Latest           string
	Release          string
	Snapshot         *Snapshot
	Versions         []string
	LastUpdated      string
	SnapshotVersions []SnapshotVersion
}

// Snapshot identifies the latest snapshot build.
type Snapshot struct {
	Timestamp   string `xml:"timestamp,omitempty"`
	BuildNumber int    `xml:"buildNumber,omitempty"`
	LocalCopy   bool   `xml:"localCopy,omitempty"`
}

// SnapshotVersion is one file of a snapshot build.
type SnapshotVersion struct {
	Classifier string `xml:"classifier,omitempty"`
	Extension  string `xml:"extension,omitempty"`
	Value      string `xml:"value,omitempty"`
	Updated    string `xml:"updated,omitempty"`
}

// Plugin maps a plugin prefix to its artifact in group-level metadata.
type Plugin struct {
	Name       string `xml:"name,omitempty"`
	Prefix     string `xml:"prefix"`
	ArtifactID string `xml:"artifactId"`
}

// The document form. List wrappers are pointers so empty lists drop their
// parent element.
type metadataXML struct {
	XMLName      xml.Name       `xml:"metadata"`
	ModelVersion string         `xml:"modelVersion,attr,omitempty"`
	GroupID      string         `xml:"groupId,omitempty"`
	ArtifactID   string         `xml:"artifactId,omitempty"`
	Version      string         `xml:"version,omitempty"`
	Versioning   *versioningXML `xml:"versioning,omitempty"`
	Plugins      *pluginsXML    `xml:"plugins,omitempty"`
}

type versioningXML struct {
	Latest           string               `xml:"latest,omitempty"`
	Release          string               `xml:"release,omitempty"`
	Snapshot         *Snapshot            `xml:"snapshot,omitempty"`
	Versions         *versionsXML         `xml:"versions,omitempty"`
	LastUpdated      string               `xml:"lastUpdated,omitempty"`
	SnapshotVersions *snapshotVersionsXML `xml:"snapshotVersions,omitempty"`
}

type versionsXML struct {
	Version []string `xml:"version"`
}

type snapshotVersionsXML struct {
	SnapshotVersion []SnapshotVersion `xml:"snapshotVersion"`
}

type pluginsXML struct {
	Plugin []Plugin `xml:"plugin"`
}

func (m *Metadata) toXML() *metadataXML {
	doc := &metadataXML{
		ModelVersion: m.ModelVersion,
		GroupID:      m.GroupID,
		ArtifactID:   m.ArtifactID,
		Version:      m.Version,
	}
	if len(m.Plugins) > 0 {
		doc.Plugins = &pluginsXML{Plugin: m.Plugins}
	}
	if v := m.Versioning; v != nil {
		doc.Versioning = &versioningXML{
			Latest:      v.Latest,
			Release:     v.Release,
			Snapshot:    v.Snapshot,
			LastUpdated: v.LastUpdated,
		}
		if len(v.Versions) > 0 {
			doc.Versioning.Versions = &versionsXML{Version: v.Versions}
		}
		if len(v.SnapshotVersions) > 0 {
			doc.Versioning.SnapshotVersions = &snapshotVersionsXML{SnapshotVersion: v.SnapshotVersions}
		}
	}
	return doc
}

func (doc *metadataXML) metadata() *Metadata {
	m := &Metadata{
		ModelVersion: doc.ModelVersion,
		GroupID:      doc.GroupID,
		ArtifactID:   doc.ArtifactID,
		Version:      doc.Version,
	}
	if doc.Plugins != nil {
		m.Plugins = doc.Plugins.Plugin
	}
	if v := doc.Versioning; v != nil {
		m.Versioning = &Versioning{
			Latest:      v.Latest,
			Release:     v.Release,
			Snapshot:    v.Snapshot,
			LastUpdated: v.LastUpdated,
		}
		if v.Versions != nil {
			m.Versioning.Versions = v.Versions.Version
		}
		if v.SnapshotVersions != nil {
			m.Versioning.SnapshotVersions = v.SnapshotVersions.SnapshotVersion
		}
	}
	return m
}

// ParseMetadata decodes a maven-metadata.xml document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var doc metadataXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.metadata(), nil
}

// Marshal encodes m with an XML declaration and two-space indentation.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m.toXML()); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// LastUpdatedTime parses the lastUpdated field.
func (m *Metadata) LastUpdatedTime() (time.Time, bool) {
	if m.Versioning == nil || m.Versioning.LastUpdated == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(timestampLayout, m.Versioning.LastUpdated)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatTimestamp renders t as a lastUpdated value.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
