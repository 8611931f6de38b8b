package generator

import (
	"context"
	"path"
	"sort"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

type claim struct {
	packageType string
	filename    string
}

// Chain dispatches generation to the generator owning a path.
type Chain struct {
	generators []Generator
	owners     map[claim]Generator
	logger     *logging.Logger
}

// NewChain builds every generator from env and registers its filenames.
// Two generators claiming the same filename for a package type is an
// error.
func NewChain(env Env, factories ...Factory) (*Chain, error) {
	c := &Chain{
		owners: make(map[claim]Generator),
		logger: logging.OrNop(env.Logger),
	}

	for _, factory := range factories {
		g := factory(env)
		for _, name := range g.Filenames() {
			k := claim{packageType: g.PackageType(), filename: name}
			if prev, ok := c.owners[k]; ok {
				return nil, errors.WithContextMap(errors.New(errors.CodeAlreadyExists, "filename claimed by two generators"), map[string]interface{}{
					"package_type": k.packageType,
					"filename":     name,
					"generators":   []string{prev.Name(), g.Name()},
				})
			}
			c.owners[k] = g
		}
		c.generators = append(c.generators, g)
	}
	return c, nil
}

// Generators returns the registered generators in registration order.
func (c *Chain) Generators() []Generator {
	return c.generators
}

// Owner returns the generator owning path for packageType. Checksum
// siblings belong to the owner of the file they sum.
func (c *Chain) Owner(packageType, p string) (Generator, bool) {
	base, _ := SplitChecksum(transfer.CleanPath(p))
	if transfer.IsDir(base) {
		return nil, false
	}
	g, ok := c.owners[claim{packageType: packageType, filename: path.Base(base)}]
	return g, ok
}

// CanProcess reports whether some generator owns path. Owned paths are
// merge-managed on groups.
func (c *Chain) CanProcess(packageType, p string) bool {
	_, ok := c.Owner(packageType, p)
	return ok
}

// GenerateFileContent delegates to the owner of path, if any.
func (c *Chain) GenerateFileContent(ctx context.Context, s *store.ArtifactStore, p string) (*transfer.Transfer, error) {
	g, ok := c.Owner(s.Key.PackageType, p)
	if !ok {
		return nil, nil
	}
	return g.GenerateFileContent(ctx, s, p)
}

// GenerateGroupFileContent delegates to the owner of path, if any.
func (c *Chain) GenerateGroupFileContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, p string) (*transfer.Transfer, error) {
	g, ok := c.Owner(group.Key.PackageType, p)
	if !ok {
		return nil, nil
	}
	return g.GenerateGroupFileContent(ctx, group, members, p)
}

// GenerateDirectoryContent collects synthetic entries from every generator
// for the store's package type. Generator failures are logged and skipped.
func (c *Chain) GenerateDirectoryContent(ctx context.Context, s *store.ArtifactStore, p string) []string {
	return c.collect(ctx, s, p, func(g Generator) ([]string, error) {
		return g.GenerateDirectoryContent(ctx, s, p)
	})
}

// GenerateGroupDirectoryContent is GenerateDirectoryContent for groups.
func (c *Chain) GenerateGroupDirectoryContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, p string) []string {
	return c.collect(ctx, group, p, func(g Generator) ([]string, error) {
		return g.GenerateGroupDirectoryContent(ctx, group, members, p)
	})
}

func (c *Chain) collect(ctx context.Context, s *store.ArtifactStore, p string, fn func(Generator) ([]string, error)) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range c.generators {
		if g.PackageType() != s.Key.PackageType {
			continue
		}
		names, err := fn(g)
		if err != nil {
			c.logger.WithStore(s.Key).WithPath(p).Warn(ctx, "directory generation failed", "generator", g.Name(), "error", err)
			continue
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// HandleContentStorage notifies every generator for the store's package
// type and returns the union of stale generated paths.
func (c *Chain) HandleContentStorage(ctx context.Context, s *store.ArtifactStore, p string) ([]string, error) {
	return c.notify(s, func(g Generator) ([]string, error) {
		return g.HandleContentStorage(ctx, s, p)
	})
}

// HandleContentDeletion is HandleContentStorage for deletions.
func (c *Chain) HandleContentDeletion(ctx context.Context, s *store.ArtifactStore, p string) ([]string, error) {
	return c.notify(s, func(g Generator) ([]string, error) {
		return g.HandleContentDeletion(ctx, s, p)
	})
}

func (c *Chain) notify(s *store.ArtifactStore, fn func(Generator) ([]string, error)) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	var firstErr error
	for _, g := range c.generators {
		if g.PackageType() != s.Key.PackageType {
			continue
		}
		paths, err := fn(g)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out, firstErr
}
