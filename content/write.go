package content

import (
	"context"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// Store writes data to path. A group delegates to its first enabled,
// writable hosted member that accepts the path's quality. Remote stores
// cannot be written.
func (m *Manager) Store(ctx context.Context, key store.Key, path string, data []byte) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := m.run(ctx, logging.OpStore, key, path, func(ctx context.Context) error {
		t, err := m.store(ctx, key, path, data)
		out = t
		return err
	})
	return out, err
}

func (m *Manager) store(ctx context.Context, key store.Key, path string, data []byte) (*transfer.Transfer, error) {
	p := transfer.CleanPath(path)
	if transfer.IsDir(p) {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "cannot store content at a directory path"), "path", path)
	}

	s, err := m.registry.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	target := s
	switch {
	case s.IsGroup():
		if !s.Enabled() {
			return nil, policyDenied(s.Key, p, "store is disabled")
		}
		if target, err = m.deployTarget(ctx, s, p); err != nil {
			return nil, err
		}
	case s.IsRemote():
		return nil, policyDenied(s.Key, p, "content cannot be stored in a remote store")
	default:
		if err := m.checkWritable(ctx, s, p); err != nil {
			return nil, err
		}
		if !s.Accepts(store.PathQuality(p)) {
			return nil, policyDenied(s.Key, p, "store does not accept content of this quality")
		}
	}

	if !m.masks.Allows(ctx, target, p) {
		return nil, policyDenied(target.Key, p, "path is excluded by the store's path mask")
	}

	t, err := m.accessor.Store(ctx, target, p, data)
	if err != nil {
		return nil, err
	}

	stale, err := m.chain.HandleContentStorage(ctx, target, p)
	if err != nil {
		m.logger.WithStore(target.Key).WithPath(p).Warn(ctx, "storage hook failed", "error", err)
	}
	m.invalidate(ctx, target, stale)

	m.nfc.ClearMissing(target.Key, p)
	if s != target {
		m.nfc.ClearMissing(s.Key, p)
	}

	m.publish(Event{Type: EventStored, Store: target.Key, Path: p, RequestID: RequestID(ctx)})
	return t, nil
}

// deployTarget selects the member of group that receives an upload of
// path.
func (m *Manager) deployTarget(ctx context.Context, group *store.ArtifactStore, path string) (*store.ArtifactStore, error) {
	members, err := m.registry.OrderedConcreteMembers(ctx, group.Key, true)
	if err != nil {
		return nil, err
	}

	quality := store.PathQuality(path)
	hosted := 0
	for _, member := range members {
		if !member.IsHosted() {
			continue
		}
		hosted++

		readonly, err := m.registry.IsReadonly(ctx, member.Key)
		if err != nil {
			return nil, err
		}
		if readonly || !member.Accepts(quality) || !m.masks.Allows(ctx, member, path) {
			continue
		}
		return member, nil
	}

	msg := "No suitable store available"
	if hosted == 0 {
		msg = "No deployment locations available"
	}
	return nil, errors.WithContextMap(errors.New(errors.CodeSuitability, msg), map[string]interface{}{
		"group":   group.Key.String(),
		"path":    path,
		"quality": string(quality),
	})
}

// checkWritable refuses writes to disabled or readonly hosted stores.
// Readonly is bypassed by the bypass-readonly metadata flag.
func (m *Manager) checkWritable(ctx context.Context, s *store.ArtifactStore, path string) error {
	if !s.Enabled() {
		return policyDenied(s.Key, path, "store is disabled")
	}
	if MetadataFrom(ctx).Bool(MetaBypassReadonly) {
		return nil
	}
	readonly, err := m.registry.IsReadonly(ctx, s.Key)
	if err != nil {
		return err
	}
	if readonly {
		return policyDenied(s.Key, path, "store is readonly")
	}
	return nil
}

// Delete removes path from the store named by key and reports whether
// anything was removed. Directory paths are removed recursively. A group
// only accepts deletes of generator-owned paths, which clears its cached
// merge.
func (m *Manager) Delete(ctx context.Context, key store.Key, path string) (bool, error) {
	var removed bool
	err := m.run(ctx, logging.OpDelete, key, path, func(ctx context.Context) error {
		var err error
		removed, err = m.delete(ctx, key, path)
		return err
	})
	return removed, err
}

// DeleteAll deletes path from every one of keys. It keeps going after a
// failure and returns the first error.
func (m *Manager) DeleteAll(ctx context.Context, keys []store.Key, path string) (bool, error) {
	var removed bool
	err := m.run(ctx, logging.OpDelete, store.Key{}, path, func(ctx context.Context) error {
		var first error
		for _, key := range keys {
			ok, err := m.delete(ctx, key, path)
			if err != nil {
				m.logger.WithStore(key).WithPath(path).Warn(ctx, "delete failed", "error", err)
				if first == nil {
					first = err
				}
				continue
			}
			removed = removed || ok
		}
		return first
	})
	return removed, err
}

func (m *Manager) delete(ctx context.Context, key store.Key, path string) (bool, error) {
	p := transfer.CleanPath(path)

	s, err := m.registry.Get(ctx, key)
	if err != nil {
		return false, err
	}

	if s.IsGroup() {
		return m.deleteGroup(ctx, s, p)
	}
	if s.IsHosted() {
		if err := m.checkWritable(ctx, s, p); err != nil {
			return false, err
		}
	}

	var files []string
	if transfer.IsDir(p) {
		err := m.accessor.Walk(ctx, s, p, func(f string) error {
			files = append(files, f)
			return nil
		})
		if err != nil {
			return false, err
		}
	} else {
		files = []string{p}
	}

	removed, err := m.accessor.Delete(ctx, s, p)
	if err != nil || !removed {
		return removed, err
	}

	var stale []string
	for _, f := range files {
		paths, err := m.chain.HandleContentDeletion(ctx, s, f)
		if err != nil {
			m.logger.WithStore(s.Key).WithPath(f).Warn(ctx, "deletion hook failed", "error", err)
		}
		stale = append(stale, paths...)
		m.nfc.ClearMissing(s.Key, f)
	}
	m.invalidate(ctx, s, stale)

	m.publish(Event{Type: EventDeleted, Store: s.Key, Path: p, RequestID: RequestID(ctx)})
	return true, nil
}

// deleteGroup clears the cached merge of a generator-owned path so the
// next request regenerates it.
func (m *Manager) deleteGroup(ctx context.Context, group *store.ArtifactStore, p string) (bool, error) {
	if !m.chain.CanProcess(group.Key.PackageType, p) {
		return false, policyDenied(group.Key, p, "groups hold no content of their own")
	}

	removed, err := m.merges.Clear(ctx, group.Key, p)
	if err != nil {
		return false, err
	}
	base, _ := generator.SplitChecksum(transfer.CleanPath(p))
	m.nfc.ClearMissing(group.Key, base)

	owner, _ := m.chain.Owner(group.Key.PackageType, p)
	stale, err := owner.HandleContentDeletion(ctx, group, p)
	if err != nil {
		m.logger.WithStore(group.Key).WithPath(p).Warn(ctx, "deletion hook failed", "error", err)
	}
	m.invalidate(ctx, group, stale)

	if removed {
		m.publish(Event{Type: EventDeleted, Store: group.Key, Path: p, RequestID: RequestID(ctx)})
	}
	return removed, nil
}
