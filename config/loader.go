package config

import (
	"context"
	_ "embed"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
)

//go:embed schema.cue
var schemaSource string

// Loader reads configurations from a filesystem and validates them against
// the embedded schema.
type Loader struct {
	fs     core.ReadFS
	cueCtx *cue.Context
	schema cue.Value
}

// NewLoader returns a loader reading from filesystem.
func NewLoader(filesystem core.ReadFS) (*Loader, error) {
	cueCtx := cuecontext.New()
	schema := cueCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, wrapBuildError(err, "failed to compile configuration schema")
	}
	return &Loader{
		fs:     filesystem,
		cueCtx: cueCtx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}, nil
}

// Load reads, validates and decodes the configuration at filePath. Files
// ending in .yaml, .yml or .json are read as YAML; anything else as CUE.
func (l *Loader) Load(ctx context.Context, filePath string) (*Config, error) {
	value, err := l.Value(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return l.decode(ctx, value, filePath)
}

// Parse validates and decodes src as if it had been read from filePath.
func (l *Loader) Parse(ctx context.Context, filePath string, src []byte) (*Config, error) {
	value, err := l.build(ctx, filePath, src)
	if err != nil {
		return nil, err
	}
	return l.decode(ctx, value, filePath)
}

// Value returns the configuration at filePath unified with the schema, with
// every default filled in.
func (l *Loader) Value(ctx context.Context, filePath string) (cue.Value, error) {
	if err := ctx.Err(); err != nil {
		return cue.Value{}, wrapLoadErrorWithContext(err, "context cancelled", makeContext("file_path", filePath))
	}

	src, err := l.fs.ReadFile(filePath)
	if err != nil {
		return cue.Value{}, wrapLoadErrorWithContext(err, "failed to read configuration", makeContext("file_path", filePath))
	}
	return l.build(ctx, filePath, src)
}

func (l *Loader) build(ctx context.Context, filePath string, src []byte) (cue.Value, error) {
	var data cue.Value
	switch strings.ToLower(path.Ext(filePath)) {
	case ".yaml", ".yml", ".json":
		file, err := cueyaml.Extract(filePath, src)
		if err != nil {
			return cue.Value{}, wrapLoadErrorWithContext(err, "failed to parse YAML configuration", makeContext("file_path", filePath))
		}
		data = l.cueCtx.BuildFile(file)
	default:
		data = l.cueCtx.CompileBytes(src, cue.Filename(filePath))
	}
	if err := data.Err(); err != nil {
		return cue.Value{}, wrapBuildErrorWithContext(err, "failed to build configuration", makeContext("file_path", filePath))
	}

	if err := Validate(ctx, l.schema, data); err != nil {
		return cue.Value{}, errors.WithContext(err, "file_path", filePath)
	}
	return l.schema.Unify(data), nil
}

func (l *Loader) decode(ctx context.Context, value cue.Value, filePath string) (*Config, error) {
	var cfg Config
	if err := Decode(ctx, value, &cfg); err != nil {
		return nil, errors.WithContext(err, "file_path", filePath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithContext(err, "file_path", filePath)
	}
	return &cfg, nil
}

// Default returns the configuration of an empty file: in-memory storage,
// no stores.
func (l *Loader) Default(ctx context.Context) (*Config, error) {
	return l.Parse(ctx, "default.cue", nil)
}
