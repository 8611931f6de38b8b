// Package maven generates and merges maven-metadata.xml version indexes.
package maven

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// Name identifies the generator.
const Name = "maven-metadata"

// Generator owns maven-metadata.xml for maven stores.
type Generator struct {
	accessor *transfer.Accessor
	source   generator.Source
	merges   *generator.MergeStore
	logger   *logging.Logger
}

var _ generator.Generator = (*Generator)(nil)

// New is a generator.Factory.
func New(env generator.Env) generator.Generator {
	return &Generator{
		accessor: env.Accessor,
		source:   env.Source,
		merges:   env.Merges,
		logger:   logging.OrNop(env.Logger),
	}
}

func (g *Generator) Name() string        { return Name }
func (g *Generator) PackageType() string { return store.PackageMaven }
func (g *Generator) Filenames() []string { return []string{MetadataFilename} }

// GenerateFileContent builds artifact-level metadata for a hosted store from
// the version directories holding a .pom. Other stores only serve uploaded
// metadata.
func (g *Generator) GenerateFileContent(ctx context.Context, s *store.ArtifactStore, p string) (*transfer.Transfer, error) {
	if !s.IsHosted() {
		return nil, nil
	}
	base, alg := generator.SplitChecksum(transfer.CleanPath(p))
	target := g.accessor.Transfer(s.Key, base)

	ok, err := target.Exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		generated, err := g.generate(ctx, s, target)
		if err != nil || generated == nil {
			return nil, err
		}
	}

	if alg != "" {
		return target.Sibling(alg.Suffix()), nil
	}
	return target, nil
}

func (g *Generator) generate(ctx context.Context, s *store.ArtifactStore, target *transfer.Transfer) (*transfer.Transfer, error) {
	dir := path.Dir(target.Path()) + "/"
	groupID, artifactID, ok := coordinates(dir)
	if !ok {
		return nil, nil
	}

	poms, err := g.versionPoms(ctx, s, dir)
	if err != nil {
		return nil, err
	}
	if len(poms) == 0 {
		return nil, nil
	}

	md := &Metadata{GroupID: groupID, ArtifactID: artifactID, Versioning: &Versioning{}}
	inputs := make([]generator.Input, 0, len(poms))
	var newest time.Time
	for version, pom := range poms {
		md.Versioning.Versions = append(md.Versioning.Versions, version)

		data, err := pom.ReadAll()
		if err != nil {
			return nil, err
		}
		mod := pom.ModTime().UTC().Truncate(time.Second)
		if mod.After(newest) {
			newest = mod
		}
		inputs = append(inputs, generator.Input{Store: s.Key, Path: pom.Path(), Data: data, ModTime: mod})
	}

	SortVersions(md.Versioning.Versions)
	vs := md.Versioning.Versions
	md.Versioning.Latest = vs[len(vs)-1]
	for i := len(vs) - 1; i >= 0; i-- {
		if !IsPreRelease(vs[i]) {
			md.Versioning.Release = vs[i]
			break
		}
	}
	if !newest.IsZero() {
		md.Versioning.LastUpdated = FormatTimestamp(newest)
	}

	data, err := md.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode maven metadata")
	}
	result := &generator.Result{Data: data, LastModified: newest}

	sortInputs(inputs)
	if err := generator.Publish(target, result, generator.NewInfo(Name, target.Path(), inputs, result)); err != nil {
		return nil, err
	}

	g.logger.WithOperation(logging.OpGenerate).WithStore(s.Key).WithPath(target.Path()).
		Debug(ctx, "generated maven metadata", "versions", len(vs))
	return target, nil
}

// versionPoms returns, per version directory under dir, the first .pom it
// contains.
func (g *Generator) versionPoms(ctx context.Context, s *store.ArtifactStore, dir string) (map[string]*transfer.Transfer, error) {
	children, err := g.source.List(ctx, s, dir)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	poms := make(map[string]*transfer.Transfer)
	for _, child := range children {
		if !strings.HasSuffix(child, "/") {
			continue
		}
		pom, err := g.findPom(ctx, s, dir+child)
		if err != nil {
			return nil, err
		}
		if pom != nil {
			poms[strings.TrimSuffix(child, "/")] = pom
		}
	}
	return poms, nil
}

func (g *Generator) findPom(ctx context.Context, s *store.ArtifactStore, versionDir string) (*transfer.Transfer, error) {
	files, err := g.source.List(ctx, s, versionDir)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".pom") {
			continue
		}
		t, err := g.source.Retrieve(ctx, s, versionDir+f)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return t, nil
	}
	return nil, nil
}

// GenerateGroupFileContent merges the members' metadata into the group.
func (g *Generator) GenerateGroupFileContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, p string) (*transfer.Transfer, error) {
	return g.merges.Generate(ctx, Name, group, members, p, Merge)
}

// GenerateDirectoryContent advertises metadata in artifact directories of
// hosted stores.
func (g *Generator) GenerateDirectoryContent(ctx context.Context, s *store.ArtifactStore, p string) ([]string, error) {
	if !s.IsHosted() {
		return nil, nil
	}
	ok, err := g.isArtifactDir(ctx, s, transfer.CleanPath(p))
	if err != nil || !ok {
		return nil, err
	}
	return generator.ChecksumNames(MetadataFilename), nil
}

// GenerateGroupDirectoryContent advertises metadata when any member holds
// or could generate it.
func (g *Generator) GenerateGroupDirectoryContent(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, p string) ([]string, error) {
	dir := transfer.CleanPath(p)
	for _, m := range members {
		if m.IsHosted() {
			ok, err := g.isArtifactDir(ctx, m, dir)
			if err != nil {
				g.logger.WithStore(m.Key).WithPath(dir).Warn(ctx, "skipping member", "error", err)
				continue
			}
			if ok {
				return generator.ChecksumNames(MetadataFilename), nil
			}
		}

		children, err := g.source.List(ctx, m, dir)
		if err != nil {
			continue
		}
		for _, c := range children {
			if c == MetadataFilename {
				return generator.ChecksumNames(MetadataFilename), nil
			}
		}
	}
	return nil, nil
}

func (g *Generator) isArtifactDir(ctx context.Context, s *store.ArtifactStore, dir string) (bool, error) {
	if !transfer.IsDir(dir) || dir == "" {
		return false, nil
	}
	if _, _, ok := coordinates(dir); !ok {
		return false, nil
	}
	children, err := g.source.List(ctx, s, dir)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, child := range children {
		if !strings.HasSuffix(child, "/") {
			continue
		}
		files, err := g.source.List(ctx, s, dir+child)
		if err != nil {
			continue
		}
		for _, f := range files {
			if strings.HasSuffix(f, ".pom") {
				return true, nil
			}
		}
	}
	return false, nil
}

// HandleContentStorage reports the metadata paths made stale by a write.
// Uploaded metadata replaces any generated copy. A new .pom drops the
// store's generated artifact metadata so it is rebuilt with the new version.
func (g *Generator) HandleContentStorage(ctx context.Context, s *store.ArtifactStore, p string) ([]string, error) {
	return g.handle(ctx, s, p, false)
}

// HandleContentDeletion is HandleContentStorage for deletes.
func (g *Generator) HandleContentDeletion(ctx context.Context, s *store.ArtifactStore, p string) ([]string, error) {
	return g.handle(ctx, s, p, true)
}

func (g *Generator) handle(ctx context.Context, s *store.ArtifactStore, p string, deleted bool) ([]string, error) {
	p = transfer.CleanPath(p)

	if generator.Owns(g, p) {
		base, alg := generator.SplitChecksum(p)
		if alg == "" && !s.IsGroup() {
			target := g.accessor.Transfer(s.Key, base)
			if generator.HasInfo(target) {
				// The generated checksums and sidecar no longer describe
				// the file now at base.
				if err := g.dropGenerated(target, !deleted); err != nil {
					return nil, err
				}
			}
		}
		return []string{base}, nil
	}

	if !strings.HasSuffix(p, ".pom") {
		return nil, nil
	}
	info, ok := store.ParseArtifactPath(p)
	if !ok {
		return nil, nil
	}
	meta := strings.ReplaceAll(info.GroupID, ".", "/") + "/" + info.ArtifactID + "/" + MetadataFilename

	if !s.IsHosted() {
		return nil, nil
	}
	target := g.accessor.Transfer(s.Key, meta)
	if generator.HasInfo(target) {
		if _, err := g.merges.Clear(ctx, s.Key, meta); err != nil {
			return nil, err
		}
		return []string{meta}, nil
	}

	uploaded, err := target.Exists()
	if err != nil {
		return nil, err
	}
	if uploaded {
		return nil, nil
	}
	return []string{meta}, nil
}

// dropGenerated removes the sidecar and checksums of target, and target
// itself unless keep is set.
func (g *Generator) dropGenerated(target *transfer.Transfer, keep bool) error {
	if !keep {
		if _, err := target.Delete(); err != nil {
			return err
		}
	}
	for _, alg := range generator.Algorithms {
		if _, err := target.Sibling(alg.Suffix()).Delete(); err != nil {
			return err
		}
	}
	_, err := target.Sibling(generator.InfoSuffix).Delete()
	return err
}

// coordinates derives groupId and artifactId from an artifact directory.
func coordinates(dir string) (groupID, artifactID string, ok bool) {
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1], true
}

func sortInputs(inputs []generator.Input) {
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Path < inputs[j].Path })
}
