package content

import (
	"context"

	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
)

// rawSource gives generators member content with path masks and the
// not-found cache applied, but without group handling.
type rawSource struct {
	m *Manager
}

func (s rawSource) Retrieve(ctx context.Context, st *store.ArtifactStore, path string) (*transfer.Transfer, error) {
	return s.m.retrieveConcrete(ctx, st, path)
}

func (s rawSource) List(ctx context.Context, st *store.ArtifactStore, path string) ([]string, error) {
	return s.m.listConcrete(ctx, st, path)
}
