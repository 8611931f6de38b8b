// Package npm merges package.json packuments across npm stores.
package npm

import (
	"context"

	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// Name identifies the generator.
const Name = "npm-package"

// PackageFilename is the packument file name.
const PackageFilename = "package.json"

// Generator owns package.json for npm stores. Concrete stores serve what
// was published; groups serve the merge of their members.
type Generator struct {
	merges *generator.MergeStore
}

var _ generator.Generator = (*Generator)(nil)

// New is a generator.Factory.
func New(env generator.Env) generator.Generator {
	return &Generator{merges: env.Merges}
}

func (g *Generator) Name() string        { return Name }
func (g *Generator) PackageType() string { return store.PackageNPM }
func (g *Generator) Filenames() []string { return []string{PackageFilename} }

func (g *Generator) GenerateFileContent(context.Context, *store.ArtifactStore, string) (*transfer.Transfer, error) {
	return nil, nil
}

func (g *Generator) GenerateGroupFileContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, p string) (*transfer.Transfer, error) {
	return g.merges.Generate(ctx, Name, group, members, p, Merge)
}

func (g *Generator) GenerateDirectoryContent(context.Context, *store.ArtifactStore, string) ([]string, error) {
	return nil, nil
}

func (g *Generator) GenerateGroupDirectoryContent(context.Context, *store.ArtifactStore, []*store.ArtifactStore, string) ([]string, error) {
	return nil, nil
}

// HandleContentStorage reports the packument as stale when it or one of its
// checksums changes.
func (g *Generator) HandleContentStorage(_ context.Context, _ *store.ArtifactStore, p string) ([]string, error) {
	p = transfer.CleanPath(p)
	if !generator.Owns(g, p) {
		return nil, nil
	}
	base, _ := generator.SplitChecksum(p)
	return []string{base}, nil
}

// HandleContentDeletion is HandleContentStorage for deletes.
func (g *Generator) HandleContentDeletion(ctx context.Context, s *store.ArtifactStore, p string) ([]string, error) {
	return g.HandleContentStorage(ctx, s, p)
}
