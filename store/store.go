package store

import (
	"maps"
	"slices"
	"time"
)

// ArtifactStore describes a hosted, remote or group store. Fields that only
// apply to one store type are ignored for the others.
type ArtifactStore struct {
	Key         Key
	Description string
	Disabled    bool

	// PathMaskPatterns restricts which paths the store serves. Empty means
	// every path.
	PathMaskPatterns []string

	Metadata map[string]string

	// Hosted.
	AllowReleases  bool
	AllowSnapshots bool
	Readonly       bool

	// Remote.
	URL     string
	Timeout time.Duration
	// NFCTimeout overrides the engine-wide not-found cache timeout when set.
	NFCTimeout time.Duration

	// Group.
	Constituents []Key
}

// NewHosted returns an enabled hosted store accepting releases.
func NewHosted(packageType, name string) *ArtifactStore {
	return &ArtifactStore{
		Key:           NewKey(packageType, Hosted, name),
		AllowReleases: true,
	}
}

// NewRemote returns an enabled remote store for url.
func NewRemote(packageType, name, url string) *ArtifactStore {
	return &ArtifactStore{
		Key: NewKey(packageType, Remote, name),
		URL: url,
	}
}

// NewGroup returns an enabled group with the given members.
func NewGroup(packageType, name string, members ...Key) *ArtifactStore {
	return &ArtifactStore{
		Key:          NewKey(packageType, Group, name),
		Constituents: members,
	}
}

func (s *ArtifactStore) IsHosted() bool { return s.Key.Type == Hosted }
func (s *ArtifactStore) IsRemote() bool { return s.Key.Type == Remote }
func (s *ArtifactStore) IsGroup() bool  { return s.Key.Type == Group }

// Enabled reports whether the store serves requests.
func (s *ArtifactStore) Enabled() bool { return !s.Disabled }

// Clone returns a deep copy.
func (s *ArtifactStore) Clone() *ArtifactStore {
	if s == nil {
		return nil
	}
	c := *s
	c.PathMaskPatterns = slices.Clone(s.PathMaskPatterns)
	c.Constituents = slices.Clone(s.Constituents)
	c.Metadata = maps.Clone(s.Metadata)
	return &c
}

func (s *ArtifactStore) String() string {
	return s.Key.String()
}

// Keys returns the keys of stores in order.
func Keys(stores []*ArtifactStore) []Key {
	keys := make([]Key, len(stores))
	for i, s := range stores {
		keys[i] = s.Key
	}
	return keys
}
