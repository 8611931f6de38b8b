package errors

import "errors"

// asPlatform returns err as a PlatformError, converting plain errors to
// CodeUnknown.
func asPlatform(err error) PlatformError {
	var platformErr PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	return &platformError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}

// WithContext returns a copy of err with key set in its context.
// Plain errors are converted to CodeUnknown. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "group", group.String())
func WithContext(err error, key string, value interface{}) PlatformError {
	if err == nil {
		return nil
	}
	return WithContextMap(err, map[string]interface{}{key: value})
}

// WithContextMap merges fields into err's context. New fields override
// existing ones with the same key. Returns nil if err is nil.
func WithContextMap(err error, fields map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}

	platformErr := asPlatform(err)
	merged := platformErr.Context()
	if merged == nil {
		merged = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &platformError{
		code:           platformErr.Code(),
		classification: platformErr.Classification(),
		message:        platformErr.Message(),
		context:        merged,
		cause:          platformErr.Unwrap(),
	}
}

// WithClassification returns a copy of err with its classification replaced.
// Returns nil if err is nil.
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}

	platformErr := asPlatform(err)
	return &platformError{
		code:           platformErr.Code(),
		classification: classification,
		message:        platformErr.Message(),
		context:        platformErr.Context(),
		cause:          platformErr.Unwrap(),
	}
}
