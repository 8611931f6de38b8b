package config

import (
	"context"

	"cuelang.org/go/cue"
	"github.com/jmgilman/go/errors"
)

// Decode decodes a validated configuration value into cfg.
func Decode(ctx context.Context, value cue.Value, cfg *Config) error {
	if ctx.Err() != nil {
		return wrapDecodeError(ctx.Err(), "context cancelled before decoding")
	}
	if cfg == nil {
		return errors.New(errors.CodeCUEDecodeFailed, "decode target cannot be nil")
	}
	if err := value.Err(); err != nil {
		return wrapDecodeErrorWithContext(err, "configuration contains errors and cannot be decoded", makeContext("error", err.Error()))
	}

	if err := value.Decode(cfg); err != nil {
		return wrapDecodeErrorWithContext(err, "failed to decode configuration", makeContext("value_kind", value.Kind().String()))
	}
	return nil
}
