package content

import (
	"context"
	"strings"

	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/store"
)

// Digest returns checksums of the content at path, one per algorithm, or
// every supported algorithm when none is given. Checksum files stored next
// to the content are used unless the force-checksum metadata flag is set.
func (m *Manager) Digest(ctx context.Context, key store.Key, path string, algs ...generator.Algorithm) (map[generator.Algorithm]string, error) {
	if len(algs) == 0 {
		algs = generator.Algorithms
	}

	var out map[generator.Algorithm]string
	err := m.run(ctx, logging.OpDigest, key, path, func(ctx context.Context) error {
		t, err := m.retrieve(ctx, key, path)
		if err != nil {
			return err
		}

		force := MetadataFrom(ctx).Bool(MetaForceChecksum)
		out = make(map[generator.Algorithm]string, len(algs))
		var data []byte
		for _, alg := range algs {
			if !force {
				if sum, err := t.Sibling(alg.Suffix()).ReadAll(); err == nil {
					if s := strings.TrimSpace(string(sum)); s != "" {
						out[alg] = strings.Fields(s)[0]
						continue
					}
				}
			}
			if data == nil {
				if data, err = t.ReadAll(); err != nil {
					return err
				}
			}
			out[alg] = alg.Sum(data)
		}
		return nil
	})
	return out, err
}
