package config

import (
	"github.com/jmgilman/go/errors"
)

func wrapLoadErrorWithContext(err error, message string, ctx map[string]interface{}) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, errors.CodeCUELoadFailed, message, ctx)
}

func wrapBuildError(err error, message string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CodeCUELoadFailed, message)
}

func wrapBuildErrorWithContext(err error, message string, ctx map[string]interface{}) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, errors.CodeCUELoadFailed, message, ctx)
}

func wrapValidationErrorWithContext(err error, message string, ctx map[string]interface{}) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, errors.CodeCUEValidationFailed, message, ctx)
}

func wrapDecodeError(err error, message string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CodeCUEDecodeFailed, message)
}

func wrapDecodeErrorWithContext(err error, message string, ctx map[string]interface{}) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, errors.CodeCUEDecodeFailed, message, ctx)
}

// makeContext builds a context map from key/value pairs. Non-string keys
// are skipped.
func makeContext(kvPairs ...interface{}) map[string]interface{} {
	if len(kvPairs) == 0 {
		return nil
	}

	ctx := make(map[string]interface{})
	for i := 0; i < len(kvPairs)-1; i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			continue
		}
		ctx[key] = kvPairs[i+1]
	}
	if len(ctx) == 0 {
		return nil
	}
	return ctx
}
