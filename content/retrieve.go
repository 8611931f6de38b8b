package content

import (
	"context"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// Retrieve returns the content of path in the store named by key. Absent
// content yields a CodeNotFound error.
//
// For a group, a generator-owned path is served from the merge of every
// member's copy; any other path comes from the first member that has it.
func (m *Manager) Retrieve(ctx context.Context, key store.Key, path string) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := m.run(ctx, logging.OpRetrieve, key, path, func(ctx context.Context) error {
		t, err := m.retrieve(ctx, key, path)
		out = t
		return err
	})
	return out, err
}

// RetrieveFirst returns the content from the first of keys that has path.
func (m *Manager) RetrieveFirst(ctx context.Context, keys []store.Key, path string) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := m.run(ctx, logging.OpRetrieve, store.Key{}, path, func(ctx context.Context) error {
		for _, key := range keys {
			t, err := m.retrieve(ctx, key, path)
			switch {
			case err == nil:
				out = t
				return nil
			case errors.IsResolution(err) || errors.HasCode(err, errors.CodeCanceled):
				return err
			case !errors.IsNotFound(err):
				m.logger.WithStore(key).WithPath(path).Warn(ctx, "skipping store", "error", err)
			}
		}
		return notFound(store.Key{}, path)
	})
	return out, err
}

// RetrieveAll returns the content of path from every one of keys that has
// it, in order.
func (m *Manager) RetrieveAll(ctx context.Context, keys []store.Key, path string) ([]*transfer.Transfer, error) {
	var out []*transfer.Transfer
	err := m.run(ctx, logging.OpRetrieve, store.Key{}, path, func(ctx context.Context) error {
		for _, key := range keys {
			t, err := m.retrieve(ctx, key, path)
			switch {
			case err == nil:
				out = append(out, t)
			case errors.IsResolution(err) || errors.HasCode(err, errors.CodeCanceled):
				return err
			case !errors.IsNotFound(err):
				m.logger.WithStore(key).WithPath(path).Warn(ctx, "skipping store", "error", err)
			}
		}
		return nil
	})
	return out, err
}

func (m *Manager) retrieve(ctx context.Context, key store.Key, path string) (*transfer.Transfer, error) {
	s, err := m.registry.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var t *transfer.Transfer
	if s.IsGroup() {
		t, err = m.retrieveGroup(ctx, s, path)
	} else {
		t, err = m.retrieveConcrete(ctx, s, path)
	}
	if err == nil {
		m.publish(Event{Type: EventAccessed, Store: t.Key(), Path: t.Path(), RequestID: RequestID(ctx)})
	}
	return t, err
}

// retrieveConcrete serves path from a hosted or remote store, applying the
// path mask and, for remote stores, the not-found cache. Hosted stores fall
// back to single-store generation for generator-owned paths.
func (m *Manager) retrieveConcrete(ctx context.Context, s *store.ArtifactStore, path string) (*transfer.Transfer, error) {
	p := transfer.CleanPath(path)
	if transfer.IsDir(p) || !s.Enabled() {
		return nil, notFound(s.Key, p)
	}
	if !m.masks.Allows(ctx, s, p) {
		return nil, notFound(s.Key, p)
	}
	if s.IsRemote() && m.nfc.IsMissing(s.Key, p) {
		m.metrics.nfcHit()
		return nil, notFound(s.Key, p)
	}

	t, err := m.accessor.Retrieve(ctx, s, p)
	if err == nil {
		if s.IsRemote() {
			m.nfc.ClearMissing(s.Key, p)
		}
		return t, nil
	}

	if errors.IsNotFound(err) && m.chain.CanProcess(s.Key.PackageType, p) {
		generated, gerr := m.chain.GenerateFileContent(ctx, s, p)
		if gerr != nil {
			m.logger.WithStore(s.Key).WithPath(p).Warn(ctx, "generation failed", "error", gerr)
		} else if generated != nil {
			return generated, nil
		}
	}

	if s.IsRemote() && !errors.HasCode(err, errors.CodeCanceled) {
		m.nfc.AddMissing(ctx, s, p)
	}
	return nil, err
}

// retrieveGroup serves path from a group. Generation wins over the
// first-found fallback.
func (m *Manager) retrieveGroup(ctx context.Context, group *store.ArtifactStore, path string) (*transfer.Transfer, error) {
	p := transfer.CleanPath(path)
	if transfer.IsDir(p) || !group.Enabled() || !m.masks.Allows(ctx, group, p) {
		return nil, notFound(group.Key, p)
	}

	members, err := m.registry.OrderedConcreteMembers(ctx, group.Key, true)
	if err != nil {
		return nil, err
	}

	// Checksums of a merge share its not-found entry.
	missKey, _ := generator.SplitChecksum(p)
	managed := m.chain.CanProcess(group.Key.PackageType, p)
	if managed {
		if m.nfc.IsMissing(group.Key, missKey) {
			m.metrics.nfcHit()
			return nil, notFound(group.Key, p)
		}

		t, err := m.chain.GenerateGroupFileContent(ctx, group, members, p)
		switch {
		case err != nil:
			if errors.HasCode(err, errors.CodeCanceled) {
				return nil, err
			}
			m.logger.WithStore(group.Key).WithPath(p).Warn(ctx, "group generation failed", "error", err)
		case t != nil:
			return t, nil
		}
	}

	for _, member := range members {
		t, err := m.retrieveConcrete(ctx, member, p)
		if err == nil {
			return t, nil
		}
		if errors.HasCode(err, errors.CodeCanceled) {
			return nil, err
		}
		if !errors.IsNotFound(err) {
			m.logger.WithStore(member.Key).WithPath(p).Warn(ctx, "skipping member", "group", group.Key.String(), "error", err)
		}
	}

	if managed {
		m.nfc.AddMissing(ctx, group, missKey)
	}
	return nil, notFound(group.Key, p)
}
