package pathmask

import (
	"context"
	"strings"
	"sync"

	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// Filter applies store path masks, caching compiled masks by pattern list.
type Filter struct {
	logger *logging.Logger
	masks  sync.Map // joined patterns -> *Mask
}

// NewFilter returns a Filter. A nil logger discards output.
func NewFilter(logger *logging.Logger) *Filter {
	return &Filter{logger: logging.OrNop(logger)}
}

// Allows reports whether s may serve path. A store whose patterns fail to
// compile serves nothing.
func (f *Filter) Allows(ctx context.Context, s *store.ArtifactStore, path string) bool {
	if s == nil || len(s.PathMaskPatterns) == 0 {
		return true
	}

	mask, err := f.mask(s.PathMaskPatterns)
	if err != nil {
		f.logger.WithStore(s.Key).Warn(ctx, "path mask rejected", "error", err)
		return false
	}

	ok := mask.Allows(path)
	if !ok {
		f.logger.WithStore(s.Key).WithPath(path).Debug(ctx, "path masked")
	}
	return ok
}

func (f *Filter) mask(patterns []string) (*Mask, error) {
	cacheKey := strings.Join(patterns, "\x00")
	if m, ok := f.masks.Load(cacheKey); ok {
		return m.(*Mask), nil
	}

	m, err := Compile(patterns)
	if err != nil {
		return nil, err
	}
	actual, _ := f.masks.LoadOrStore(cacheKey, m)
	return actual.(*Mask), nil
}
