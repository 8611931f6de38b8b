package content

import (
	"context"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// Rescan schedules a background re-index of the store named by key and
// returns once it is queued. A rescan already running for the store makes
// this a no-op.
//
// A concrete store forgets its not-found entries and every stored file is
// replayed through the generators' storage hooks, clearing stale merges in
// the groups that contain it. A group drops the cached merges whose members
// changed.
func (m *Manager) Rescan(ctx context.Context, key store.Key) error {
	s, err := m.registry.Get(ctx, key)
	if err != nil {
		return err
	}

	m.lifecycleMu.Lock()
	base := m.baseCtx
	m.lifecycleMu.Unlock()
	if base == nil {
		return errors.New(errors.CodeInternal, "manager not started")
	}

	m.rescanMu.Lock()
	if _, running := m.rescans[key]; running {
		m.rescanMu.Unlock()
		m.logger.WithOperation(logging.OpRescan).WithStore(key).Debug(ctx, "rescan already running")
		return nil
	}
	rctx, cancel := context.WithCancel(WithMetadata(base, Metadata{MetaRequestID: RequestID(withRequestID(ctx))}))
	m.rescans[key] = cancel
	m.rescanWG.Add(1)
	m.rescanMu.Unlock()

	err = m.pool.Submit(rctx, func(ctx context.Context) error {
		defer m.finishRescan(key, cancel)
		return m.rescan(ctx, s)
	})
	if err != nil {
		m.finishRescan(key, cancel)
		return err
	}
	return nil
}

// RescanAll schedules a rescan of every store the registry can enumerate.
func (m *Manager) RescanAll(ctx context.Context) error {
	all, ok := m.registry.(interface{ All() []*store.ArtifactStore })
	if !ok {
		return errors.New(errors.CodeInvalidInput, "registry cannot enumerate stores")
	}

	var first error
	for _, s := range all.All() {
		if err := m.Rescan(ctx, s.Key); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CancelRescan stops the rescan of key and reports whether one was running.
func (m *Manager) CancelRescan(key store.Key) bool {
	m.rescanMu.Lock()
	defer m.rescanMu.Unlock()

	cancel, ok := m.rescans[key]
	if ok {
		cancel()
	}
	return ok
}

// Rescanning reports whether a rescan of key is queued or running.
func (m *Manager) Rescanning(key store.Key) bool {
	m.rescanMu.Lock()
	defer m.rescanMu.Unlock()
	_, ok := m.rescans[key]
	return ok
}

func (m *Manager) finishRescan(key store.Key, cancel context.CancelFunc) {
	m.rescanMu.Lock()
	delete(m.rescans, key)
	m.rescanMu.Unlock()
	cancel()
	m.rescanWG.Done()
}

func (m *Manager) rescan(ctx context.Context, s *store.ArtifactStore) (err error) {
	logger := m.logger.WithOperation(logging.OpRescan).WithStore(s.Key)
	start := time.Now()
	m.publish(Event{Type: EventRescanStarted, Store: s.Key, RequestID: RequestID(ctx)})

	var visited []string
	defer func() {
		logging.LogOperation(ctx, logger, logging.OpRescan, time.Since(start), err, "files", len(visited))
		m.publish(Event{Type: EventRescanFinished, Store: s.Key, RequestID: RequestID(ctx), Paths: visited, Err: err})
	}()

	if s.IsGroup() {
		return m.rescanGroup(ctx, s, &visited)
	}

	m.nfc.ClearStore(s.Key)

	var files []string
	generated := make(map[string]bool)
	err = m.accessor.Walk(ctx, s, "", func(p string) error {
		if m.isSidecar(s.Key.PackageType, p) {
			generated[strings.TrimSuffix(p, generator.InfoSuffix)] = true
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return err
	}

	// Generated files are outputs of the hooks, not inputs.
	var stale []string
	for _, p := range files {
		if base, _ := generator.SplitChecksum(p); generated[base] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeCanceled, "rescan canceled")
		}

		visited = append(visited, p)
		m.publish(Event{Type: EventAccessed, Store: s.Key, Path: p, RequestID: RequestID(ctx)})

		paths, err := m.chain.HandleContentStorage(ctx, s, p)
		if err != nil {
			logger.WithPath(p).Warn(ctx, "storage hook failed", "error", err)
		}
		stale = append(stale, paths...)
	}

	m.invalidate(ctx, s, stale)
	return nil
}

// rescanGroup drops the cached merges of group that no longer match its
// members' content. Merges without a sidecar are dropped too.
func (m *Manager) rescanGroup(ctx context.Context, group *store.ArtifactStore, visited *[]string) error {
	m.nfc.ClearStore(group.Key)

	var owned []string
	err := m.accessor.Walk(ctx, group, "", func(p string) error {
		base, _ := generator.SplitChecksum(p)
		if m.chain.CanProcess(group.Key.PackageType, base) && base == p {
			owned = append(owned, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	members, err := m.registry.OrderedConcreteMembers(ctx, group.Key, true)
	if err != nil {
		return err
	}

	logger := m.logger.WithOperation(logging.OpRescan).WithStore(group.Key)
	for _, p := range owned {
		*visited = append(*visited, p)

		stale, err := m.merges.Stale(ctx, group, members, p)
		if err != nil {
			if errors.HasCode(err, errors.CodeCanceled) {
				return err
			}
			logger.WithPath(p).Warn(ctx, "staleness check failed", "error", err)
			stale = true
		}
		if !stale && generator.HasInfo(m.accessor.Transfer(group.Key, p)) {
			continue
		}
		if _, err := m.merges.Clear(ctx, group.Key, p); err != nil {
			return err
		}
	}
	return nil
}
