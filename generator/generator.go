package generator

import (
	"context"
	"time"

	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// Generator produces synthetic content for the filenames it claims.
//
// The Generate methods return (nil, nil) when they have nothing to offer for
// the path, letting the caller fall back to stored content.
type Generator interface {
	// Name identifies the generator in logs and sidecars.
	Name() string

	// PackageType selects the stores the generator applies to.
	PackageType() string

	// Filenames lists the base filenames the generator owns. Checksum
	// siblings of these names are owned implicitly.
	Filenames() []string

	// GenerateFileContent synthesizes path for a single concrete store.
	GenerateFileContent(ctx context.Context, s *store.ArtifactStore, path string) (*transfer.Transfer, error)

	// GenerateGroupFileContent returns the merge of path across members,
	// computing and caching it in the group's storage on first use.
	GenerateGroupFileContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, path string) (*transfer.Transfer, error)

	// GenerateDirectoryContent lists synthetic entries for a directory of a
	// concrete store.
	GenerateDirectoryContent(ctx context.Context, s *store.ArtifactStore, path string) ([]string, error)

	// GenerateGroupDirectoryContent lists synthetic entries for a directory
	// of a group.
	GenerateGroupDirectoryContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, path string) ([]string, error)

	// HandleContentStorage is called after path was written to s. It
	// returns the generated paths whose cached content is now stale.
	HandleContentStorage(ctx context.Context, s *store.ArtifactStore, path string) ([]string, error)

	// HandleContentDeletion is called after path was deleted from s. It
	// returns the generated paths whose cached content is now stale.
	HandleContentDeletion(ctx context.Context, s *store.ArtifactStore, path string) ([]string, error)
}

// Source retrieves and lists raw content of concrete stores, applying the
// same path masks and not-found caching as ordinary requests.
type Source interface {
	// Retrieve returns the stored content or a CodeNotFound error.
	Retrieve(ctx context.Context, s *store.ArtifactStore, path string) (*transfer.Transfer, error)

	// List returns the direct children of a directory, directories with a
	// trailing slash.
	List(ctx context.Context, s *store.ArtifactStore, path string) ([]string, error)
}

// Env carries the collaborators generators are built with.
type Env struct {
	Accessor *transfer.Accessor
	Source   Source
	Merges   *MergeStore
	Logger   *logging.Logger
}

// Factory builds a generator from an Env.
type Factory func(env Env) Generator

// Input is one member's raw copy of a merged path.
type Input struct {
	Store   store.Key
	Path    string
	Data    []byte
	ModTime time.Time
}

// Result is the output of a merge.
type Result struct {
	Data []byte

	// LastModified is derived from the inputs, never from the clock, so
	// merging unchanged inputs twice yields identical output.
	LastModified time.Time
}

// MergeFunc combines member inputs given in member order. Inputs that do not
// parse are skipped. A nil result means nothing could be merged.
type MergeFunc func(inputs []Input) (*Result, error)

// Owns reports whether the base filename of path, checksum suffix removed,
// is one g claims.
func Owns(g Generator, p string) bool {
	base, _ := SplitChecksum(transfer.CleanPath(p))
	if transfer.IsDir(base) {
		return false
	}
	name := store.Filename(base)
	for _, f := range g.Filenames() {
		if f == name {
			return true
		}
	}
	return false
}

// ChecksumNames returns name followed by its checksum sibling names.
func ChecksumNames(name string) []string {
	out := []string{name}
	for _, a := range Algorithms {
		out = append(out, name+a.Suffix())
	}
	return out
}
