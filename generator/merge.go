package generator

import (
	"context"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Observer receives merge cache outcomes.
type Observer interface {
	MergeHit(generator string)
	MergeMiss(generator string)
	Generated(generator string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) MergeHit(string)                        {}
func (nopObserver) MergeMiss(string)                       {}
func (nopObserver) Generated(string, time.Duration, error) {}

// MergeOption configures a MergeStore.
type MergeOption func(*MergeStore)

// WithFetchLimit bounds concurrent member fetches per merge.
func WithFetchLimit(n int) MergeOption {
	return func(m *MergeStore) {
		if n > 0 {
			m.fetchLimit = n
		}
	}
}

// WithObserver reports cache hits, misses and generation timings.
func WithObserver(o Observer) MergeOption {
	return func(m *MergeStore) { m.observer = o }
}

// WithMergeLogger sets the logger.
func WithMergeLogger(l *logging.Logger) MergeOption {
	return func(m *MergeStore) { m.logger = logging.OrNop(l) }
}

// MergeStore caches merged content in group storage.
type MergeStore struct {
	accessor   *transfer.Accessor
	source     Source
	flight     singleflight.Group
	fetchLimit int
	observer   Observer
	logger     *logging.Logger
}

// NewMergeStore returns a merge store writing through accessor and reading
// member content from source.
func NewMergeStore(accessor *transfer.Accessor, source Source, opts ...MergeOption) *MergeStore {
	m := &MergeStore{
		accessor:   accessor,
		source:     source,
		fetchLimit: 8,
		observer:   nopObserver{},
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate returns the merged content of path for group. A checksum path
// returns the checksum sibling of the merged file, generating the merge
// first if needed. Cached content counts only once its sidecar exists; a
// target left without one is regenerated. It returns (nil, nil) when no
// member has content for path or nothing could be merged.
func (m *MergeStore) Generate(ctx context.Context, name string, group *store.ArtifactStore, members []*store.ArtifactStore, path string, merge MergeFunc) (*transfer.Transfer, error) {
	base, alg := SplitChecksum(transfer.CleanPath(path))
	target := m.accessor.Transfer(group.Key, base)

	if HasInfo(target) {
		m.observer.MergeHit(name)
		return withChecksum(target, alg), nil
	}
	m.observer.MergeMiss(name)

	v, err, _ := m.flight.Do(target.String(), func() (interface{}, error) {
		return m.generate(ctx, name, target, members, merge)
	})
	t, _ := v.(*transfer.Transfer)
	if err != nil || t == nil {
		return nil, err
	}
	return withChecksum(t, alg), nil
}

func withChecksum(t *transfer.Transfer, alg Algorithm) *transfer.Transfer {
	if alg == "" {
		return t
	}
	return t.Sibling(alg.Suffix())
}

func (m *MergeStore) generate(ctx context.Context, name string, target *transfer.Transfer, members []*store.ArtifactStore, merge MergeFunc) (result *transfer.Transfer, err error) {
	start := time.Now()
	defer func() { m.observer.Generated(name, time.Since(start), err) }()

	// A concurrent flight may have published while this one was queued.
	if HasInfo(target) {
		return target, nil
	}

	inputs, err := m.Collect(ctx, members, target.Path())
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	merged, err := merge(inputs)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInternal, "merge failed", map[string]interface{}{
			"generator": name,
			"path":      target.Path(),
		})
	}
	if merged == nil {
		return nil, nil
	}

	if err := Publish(target, merged, NewInfo(name, target.Path(), inputs, merged)); err != nil {
		return nil, err
	}

	m.logger.WithOperation(logging.OpGenerate).WithStore(target.Key()).WithPath(target.Path()).
		Debug(ctx, "generated merged content", "generator", name, "sources", len(inputs))
	return target, nil
}

// Publish writes generated content, its checksum siblings and its sidecar.
// The sidecar goes last: a file with an .info sidecar is complete.
func Publish(target *transfer.Transfer, result *Result, info *Info) error {
	if err := target.Write(result.Data); err != nil {
		return err
	}
	for _, alg := range Algorithms {
		if err := target.Sibling(alg.Suffix()).Write([]byte(alg.Sum(result.Data))); err != nil {
			return err
		}
	}
	return WriteInfo(target, info)
}

// Collect fetches path from every member that has it. Members are fetched
// concurrently; the result keeps member order. Members that fail are
// skipped.
func (m *MergeStore) Collect(ctx context.Context, members []*store.ArtifactStore, path string) ([]Input, error) {
	slots := make([]*Input, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.fetchLimit)
	for i, member := range members {
		i, member := i, member
		g.Go(func() error {
			t, err := m.source.Retrieve(gctx, member, path)
			if err != nil {
				if !errors.IsNotFound(err) {
					m.logger.WithStore(member.Key).WithPath(path).Warn(gctx, "skipping member", "error", err)
				}
				return nil
			}

			data, err := t.ReadAll()
			if err != nil {
				m.logger.WithStore(member.Key).WithPath(path).Warn(gctx, "skipping unreadable member content", "error", err)
				return nil
			}
			slots[i] = &Input{Store: member.Key, Path: t.Path(), Data: data, ModTime: t.ModTime()}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCanceled, "merge input collection canceled")
	}

	inputs := make([]Input, 0, len(members))
	for _, in := range slots {
		if in != nil {
			inputs = append(inputs, *in)
		}
	}
	return inputs, nil
}

// Clear removes the cached content of path in key along with its checksum
// siblings and sidecar. It reports whether the content itself existed.
func (m *MergeStore) Clear(ctx context.Context, key store.Key, path string) (bool, error) {
	base, _ := SplitChecksum(transfer.CleanPath(path))
	target := m.accessor.Transfer(key, base)

	// The sidecar goes first so readers stop treating the rest as cached.
	if _, err := target.Sibling(InfoSuffix).Delete(); err != nil {
		return false, err
	}
	removed, err := target.Delete()
	if err != nil {
		return false, err
	}
	for _, alg := range Algorithms {
		if _, err := target.Sibling(alg.Suffix()).Delete(); err != nil {
			return removed, err
		}
	}

	if removed {
		m.logger.WithOperation(logging.OpInvalidate).WithStore(key).WithPath(base).Debug(ctx, "cleared merged content")
	}
	return removed, nil
}

// Info returns the sidecar of the cached content of path in key.
func (m *MergeStore) Info(key store.Key, path string) (*Info, error) {
	base, _ := SplitChecksum(transfer.CleanPath(path))
	return ReadInfo(m.accessor.Transfer(key, base))
}

// Stale reports whether the cached merge of path in group no longer matches
// the members' current content. Missing cached content is not stale.
func (m *MergeStore) Stale(ctx context.Context, group *store.ArtifactStore, members []*store.ArtifactStore, path string) (bool, error) {
	info, err := m.Info(group.Key, path)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	inputs, err := m.Collect(ctx, members, info.Path)
	if err != nil {
		return false, err
	}
	if len(inputs) != len(info.Sources) {
		return true, nil
	}
	for i, in := range inputs {
		src := info.Sources[i]
		if src.Store != in.Store.String() || src.Digest != digest.FromBytes(in.Data) {
			return true, nil
		}
	}
	return false, nil
}
