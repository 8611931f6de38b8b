package maven

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_MarshalOmitsEmptyLists(t *testing.T) {
	tests := []struct {
		name    string
		md      *Metadata
		absent  []string
		present []string
	}{
		{
			name:    "versions only",
			md:      &Metadata{GroupID: "org.foo", Versioning: &Versioning{Versions: []string{"1.0"}}},
			absent:  []string{"<snapshotVersions", "<plugins", "<snapshot>"},
			present: []string{"<versions>", "<version>1.0</version>"},
		},
		{
			name:    "snapshot only",
			md:      &Metadata{Versioning: &Versioning{Snapshot: &Snapshot{BuildNumber: 2}, SnapshotVersions: []SnapshotVersion{{Extension: "jar", Value: "1.0-1"}}}},
			absent:  []string{"<versions", "<plugins"},
			present: []string{"<snapshotVersions>", "<buildNumber>2</buildNumber>"},
		},
		{
			name:    "plugins only",
			md:      &Metadata{Plugins: []Plugin{{Prefix: "foo", ArtifactID: "foo-maven-plugin"}}},
			absent:  []string{"<versioning", "<versions"},
			present: []string{"<plugins>", "<prefix>foo</prefix>"},
		},
		{
			name:   "empty versioning",
			md:     &Metadata{Versioning: &Versioning{}},
			absent: []string{"<versions", "<snapshotVersions", "<plugins"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.md.Marshal()
			require.NoError(t, err)
			for _, s := range tt.absent {
				assert.NotContains(t, string(data), s)
			}
			for _, s := range tt.present {
				assert.Contains(t, string(data), s)
			}

			back, err := ParseMetadata(data)
			require.NoError(t, err)
			assert.Equal(t, tt.md.Plugins, back.Plugins)
			if tt.md.Versioning != nil {
				require.NotNil(t, back.Versioning)
				assert.Equal(t, tt.md.Versioning.Versions, back.Versioning.Versions)
				assert.Equal(t, tt.md.Versioning.SnapshotVersions, back.Versioning.SnapshotVersions)
			}
		})
	}
}
