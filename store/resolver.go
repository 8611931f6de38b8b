package store

import (
	"context"
	"strings"

	"github.com/jmgilman/go/errors"
)

// Getter looks up a single store definition.
type Getter interface {
	Get(ctx context.Context, key Key) (*ArtifactStore, error)
}

// Resolver expands groups into their concrete members.
//
// Resolution is recomputed on every call. Membership may change between
// requests and expansion is cheap compared to the content work that follows.
type Resolver struct {
	getter Getter
}

// NewResolver returns a resolver reading store definitions from getter.
func NewResolver(getter Getter) *Resolver {
	return &Resolver{getter: getter}
}

// ConcreteMembers returns the hosted and remote stores reachable from the
// group, depth-first in declaration order. A store reachable along several
// paths appears once, at its first position. With enabledOnly set, disabled
// stores are skipped and so are disabled nested groups with everything below
// them.
//
// A cycle or a reference to an unknown store fails with CodeResolution.
func (r *Resolver) ConcreteMembers(ctx context.Context, group Key, enabledOnly bool) ([]*ArtifactStore, error) {
	root, err := r.getter.Get(ctx, group)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.WithContext(errors.New(errors.CodeResolution, "group not found"), "group", group.String())
		}
		return nil, err
	}
	if !root.IsGroup() {
		return nil, errors.Newf(errors.CodeInvalidInput, "store %s is not a group", group)
	}

	w := &walk{
		ctx:         ctx,
		getter:      r.getter,
		enabledOnly: enabledOnly,
		onStack:     map[Key]bool{},
		emitted:     map[Key]bool{},
	}
	if err := w.visit(root, []Key{group}); err != nil {
		return nil, err
	}
	return w.out, nil
}

type walk struct {
	ctx         context.Context
	getter      Getter
	enabledOnly bool
	onStack     map[Key]bool
	emitted     map[Key]bool
	out         []*ArtifactStore
}

func (w *walk) visit(group *ArtifactStore, trail []Key) error {
	if err := w.ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeCanceled, "group resolution canceled")
	}

	w.onStack[group.Key] = true
	defer delete(w.onStack, group.Key)

	for _, key := range group.Constituents {
		if w.onStack[key] {
			return errors.WithContext(errors.New(errors.CodeResolution, "group membership cycle"),
				"cycle", formatTrail(append(trail, key)))
		}

		member, err := w.getter.Get(w.ctx, key)
		if err != nil {
			if !errors.IsNotFound(err) {
				return err
			}
			return errors.WithContextMap(errors.New(errors.CodeResolution, "group member not found"), map[string]interface{}{
				"group":  group.Key.String(),
				"member": key.String(),
			})
		}

		if w.enabledOnly && !member.Enabled() {
			continue
		}

		if member.IsGroup() {
			if err := w.visit(member, append(trail, key)); err != nil {
				return err
			}
			continue
		}

		if !w.emitted[key] {
			w.emitted[key] = true
			w.out = append(w.out, member)
		}
	}
	return nil
}

func formatTrail(trail []Key) string {
	parts := make([]string, len(trail))
	for i, k := range trail {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}
