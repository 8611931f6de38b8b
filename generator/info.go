package generator

import (
	"encoding/json"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/transfer"
	"github.com/opencontainers/go-digest"
)

// InfoSuffix is appended to a generated path to name its sidecar.
const InfoSuffix = ".info"

// Info is the sidecar written next to generated content.
type Info struct {
	Generator string        `json:"generator"`
	Path      string        `json:"path"`
	Generated time.Time     `json:"generated"`
	Digest    digest.Digest `json:"digest"`
	Sources   []SourceInfo  `json:"sources"`
}

// SourceInfo records one contributing input.
type SourceInfo struct {
	Store  string        `json:"store"`
	Path   string        `json:"path"`
	Digest digest.Digest `json:"digest,omitempty"`
}

// NewInfo describes a merge of inputs into result.
func NewInfo(generator, path string, inputs []Input, result *Result) *Info {
	info := &Info{
		Generator: generator,
		Path:      path,
		Generated: result.LastModified.UTC(),
		Digest:    digest.FromBytes(result.Data),
		Sources:   make([]SourceInfo, 0, len(inputs)),
	}
	for _, in := range inputs {
		info.Sources = append(info.Sources, SourceInfo{
			Store:  in.Store.String(),
			Path:   in.Path,
			Digest: digest.FromBytes(in.Data),
		})
	}
	return info
}

// WriteInfo writes the sidecar for target.
func WriteInfo(target *transfer.Transfer, info *Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode merge info")
	}
	return target.Sibling(InfoSuffix).Write(data)
}

// ReadInfo reads the sidecar for target.
func ReadInfo(target *transfer.Transfer) (*Info, error) {
	data, err := target.Sibling(InfoSuffix).ReadAll()
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeStorage, "corrupt merge info", map[string]interface{}{
			"path": target.Path(),
		})
	}
	return &info, nil
}

// HasInfo reports whether target carries a sidecar, i.e. was generated.
func HasInfo(target *transfer.Transfer) bool {
	ok, err := target.Sibling(InfoSuffix).Exists()
	return err == nil && ok
}
