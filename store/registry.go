package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jmgilman/go/errors"
)

// Registry is the store metadata query interface the content engine
// consumes.
type Registry interface {
	Getter

	// OrderedConcreteMembers resolves a group into its concrete members.
	OrderedConcreteMembers(ctx context.Context, group Key, enabledOnly bool) ([]*ArtifactStore, error)

	// GroupsAffectedBy returns every group that directly or transitively
	// contains any of keys.
	GroupsAffectedBy(ctx context.Context, keys ...Key) ([]*ArtifactStore, error)

	// IsReadonly reports whether writes to the store are refused.
	IsReadonly(ctx context.Context, key Key) (bool, error)
}

// MemoryRegistry is a concurrency-safe in-memory Registry.
type MemoryRegistry struct {
	mu       sync.RWMutex
	stores   map[Key]*ArtifactStore
	resolver *Resolver
}

// NewMemoryRegistry returns a registry holding stores.
func NewMemoryRegistry(stores ...*ArtifactStore) *MemoryRegistry {
	r := &MemoryRegistry{stores: make(map[Key]*ArtifactStore, len(stores))}
	r.resolver = NewResolver(r)
	for _, s := range stores {
		r.stores[s.Key] = s.Clone()
	}
	return r
}

// Put adds or replaces a store definition.
func (r *MemoryRegistry) Put(s *ArtifactStore) error {
	if s == nil || s.Key.IsZero() {
		return errors.New(errors.CodeInvalidInput, "store key is required")
	}
	if !s.Key.Type.Valid() {
		return errors.Newf(errors.CodeInvalidInput, "invalid store type %q", s.Key.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.Key] = s.Clone()
	return nil
}

// Remove deletes a store definition. It reports whether the store existed.
func (r *MemoryRegistry) Remove(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.stores[key]
	delete(r.stores, key)
	return ok
}

// Get returns a copy of the store definition or a CodeNotFound error.
func (r *MemoryRegistry) Get(_ context.Context, key Key) (*ArtifactStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[key]
	if !ok {
		return nil, errors.WithContext(errors.New(errors.CodeNotFound, "store not found"), "store", key.String())
	}
	return s.Clone(), nil
}

// All returns copies of every store sorted by key.
func (r *MemoryRegistry) All() []*ArtifactStore {
	return r.filter(func(*ArtifactStore) bool { return true })
}

// Groups returns copies of every group sorted by key.
func (r *MemoryRegistry) Groups() []*ArtifactStore {
	return r.filter((*ArtifactStore).IsGroup)
}

func (r *MemoryRegistry) filter(keep func(*ArtifactStore) bool) []*ArtifactStore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ArtifactStore
	for _, s := range r.stores {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	sortByKey(out)
	return out
}

// OrderedConcreteMembers implements Registry.
func (r *MemoryRegistry) OrderedConcreteMembers(ctx context.Context, group Key, enabledOnly bool) ([]*ArtifactStore, error) {
	return r.resolver.ConcreteMembers(ctx, group, enabledOnly)
}

// GroupsAffectedBy implements Registry. The result is sorted by key and
// terminates on cyclic membership.
func (r *MemoryRegistry) GroupsAffectedBy(ctx context.Context, keys ...Key) ([]*ArtifactStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parents := make(map[Key][]*ArtifactStore)
	for _, s := range r.stores {
		if !s.IsGroup() {
			continue
		}
		for _, member := range s.Constituents {
			parents[member] = append(parents[member], s)
		}
	}

	seen := make(map[Key]bool)
	frontier := append([]Key(nil), keys...)
	var out []*ArtifactStore
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeCanceled, "affected group lookup canceled")
		}

		key := frontier[0]
		frontier = frontier[1:]
		for _, g := range parents[key] {
			if seen[g.Key] {
				continue
			}
			seen[g.Key] = true
			out = append(out, g.Clone())
			frontier = append(frontier, g.Key)
		}
	}

	sortByKey(out)
	return out, nil
}

// IsReadonly implements Registry.
func (r *MemoryRegistry) IsReadonly(ctx context.Context, key Key) (bool, error) {
	s, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return s.IsHosted() && s.Readonly, nil
}

func sortByKey(stores []*ArtifactStore) {
	sort.Slice(stores, func(i, j int) bool {
		return stores[i].Key.String() < stores[j].Key.String()
	})
}

var _ Registry = (*MemoryRegistry)(nil)
