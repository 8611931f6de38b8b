package content

import (
	"context"
	"sort"
	"strings"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// List returns the sorted direct children of a directory. Directory names
// carry a trailing slash. A group lists the union of its members plus the
// files its generators would produce.
func (m *Manager) List(ctx context.Context, key store.Key, path string) ([]string, error) {
	var out []string
	err := m.run(ctx, logging.OpList, key, path, func(ctx context.Context) error {
		s, err := m.registry.Get(ctx, key)
		if err != nil {
			return err
		}
		if s.IsGroup() {
			out, err = m.listGroup(ctx, s, path)
		} else {
			out, err = m.listConcrete(ctx, s, path)
			if err == nil && s.Enabled() {
				out = union(out, m.chain.GenerateDirectoryContent(ctx, s, dirPath(path)))
			}
		}
		return err
	})
	return out, err
}

func dirPath(path string) string {
	p := transfer.CleanPath(path)
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// listConcrete lists stored children allowed by the store's path mask.
// Generator sidecars are hidden.
func (m *Manager) listConcrete(ctx context.Context, s *store.ArtifactStore, path string) ([]string, error) {
	dir := dirPath(path)
	if !s.Enabled() || !m.masks.Allows(ctx, s, dir) {
		return nil, nil
	}

	names, err := m.accessor.List(ctx, s, dir)
	if err != nil {
		return nil, err
	}

	out := names[:0]
	for _, name := range names {
		if m.isSidecar(s.Key.PackageType, dir+name) || !m.masks.Allows(ctx, s, dir+name) {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

func (m *Manager) isSidecar(packageType, p string) bool {
	base, ok := strings.CutSuffix(p, generator.InfoSuffix)
	return ok && m.chain.CanProcess(packageType, base)
}

func (m *Manager) listGroup(ctx context.Context, group *store.ArtifactStore, path string) ([]string, error) {
	dir := dirPath(path)
	if !group.Enabled() || !m.masks.Allows(ctx, group, dir) {
		return nil, nil
	}

	members, err := m.registry.OrderedConcreteMembers(ctx, group.Key, true)
	if err != nil {
		return nil, err
	}

	out := m.chain.GenerateGroupDirectoryContent(ctx, group, members, dir)
	for _, member := range members {
		names, err := m.listConcrete(ctx, member, dir)
		if err != nil {
			if errors.HasCode(err, errors.CodeCanceled) {
				return nil, err
			}
			m.logger.WithStore(member.Key).WithPath(dir).Warn(ctx, "skipping member listing", "error", err)
			continue
		}
		out = union(out, names)
	}
	return out, nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Exists reports whether path exists in the store named by key. For a
// group it is true when any member has the path. Existence checks never
// generate content.
func (m *Manager) Exists(ctx context.Context, key store.Key, path string) (bool, error) {
	var found bool
	err := m.run(ctx, logging.OpExists, key, path, func(ctx context.Context) error {
		s, err := m.registry.Get(ctx, key)
		if err != nil {
			return err
		}
		if !s.IsGroup() {
			found, err = m.existsConcrete(ctx, s, path)
			return err
		}

		if !s.Enabled() || !m.masks.Allows(ctx, s, transfer.CleanPath(path)) {
			return nil
		}
		members, err := m.registry.OrderedConcreteMembers(ctx, s.Key, true)
		if err != nil {
			return err
		}
		for _, member := range members {
			ok, err := m.existsConcrete(ctx, member, path)
			if err != nil {
				m.logger.WithStore(member.Key).WithPath(path).Warn(ctx, "skipping member", "error", err)
				continue
			}
			if ok {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (m *Manager) existsConcrete(ctx context.Context, s *store.ArtifactStore, path string) (bool, error) {
	p := transfer.CleanPath(path)
	if !s.Enabled() || !m.masks.Allows(ctx, s, p) {
		return false, nil
	}
	if s.IsRemote() && m.nfc.IsMissing(s.Key, p) {
		m.metrics.nfcHit()
		return false, nil
	}

	ok, err := m.accessor.Exists(ctx, s, p)
	if err != nil {
		if errors.HasCode(err, errors.CodeCanceled) {
			return false, err
		}
		m.logger.WithStore(s.Key).WithPath(p).Warn(ctx, "existence check failed", "error", err)
		if s.IsRemote() {
			m.nfc.AddMissing(ctx, s, p)
		}
		return false, nil
	}
	if !ok && s.IsRemote() {
		m.nfc.AddMissing(ctx, s, p)
	}
	return ok, nil
}
