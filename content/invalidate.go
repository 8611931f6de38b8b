package content

import (
	"context"
	"sort"

	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// invalidate clears the cached merges of paths in changed, when it is a
// group, and in every group containing it. A group whose merge was already
// absent also forgets any not-found entry for the path. Failures are
// logged and do not stop the walk.
func (m *Manager) invalidate(ctx context.Context, changed *store.ArtifactStore, paths []string) {
	if len(paths) == 0 {
		return
	}
	paths = dedupe(paths)
	logger := m.logger.WithOperation(logging.OpInvalidate).WithStore(changed.Key)

	groups, err := m.registry.GroupsAffectedBy(ctx, changed.Key)
	if err != nil {
		logger.Error(ctx, "failed to find affected groups", "error", err)
	}
	if changed.IsGroup() {
		groups = append([]*store.ArtifactStore{changed}, groups...)
	}

	var cleared []store.Key
	for _, g := range groups {
		touched := false
		for _, p := range paths {
			removed, err := m.merges.Clear(ctx, g.Key, p)
			if err != nil {
				logger.Warn(ctx, "failed to clear merged content", "group", g.Key.String(), "path", p, "error", err)
				continue
			}
			if removed {
				touched = true
				m.metrics.invalidated()
			} else {
				base, _ := generator.SplitChecksum(p)
				m.nfc.ClearMissing(g.Key, base)
			}
		}
		if touched {
			cleared = append(cleared, g.Key)
		}
	}

	logger.Debug(ctx, "invalidated merged content", "paths", paths, "groups", len(groups), "cleared", len(cleared))
	m.publish(Event{
		Type:      EventInvalidated,
		Store:     changed.Key,
		RequestID: RequestID(ctx),
		Groups:    cleared,
		Paths:     paths,
	})
}

func dedupe(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	n := 0
	for i, p := range out {
		if i == 0 || p != out[n-1] {
			out[n] = p
			n++
		}
	}
	return out[:n]
}
