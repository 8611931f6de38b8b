package errors

import (
	stderrors "errors"
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// GetCode returns the code of the outermost PlatformError in err's chain,
// or CodeUnknown.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Code()
	}
	return CodeUnknown
}

// GetClassification returns the classification of the outermost
// PlatformError in err's chain. Plain and nil errors are permanent.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Classification()
	}
	return ClassificationPermanent
}

// IsRetryable returns true if err is classified as retryable.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// HasCode reports whether any PlatformError in err's chain carries code.
// Unlike GetCode it looks past the outermost error, so a NotFound wrapped
// by a storage error is still recognized.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if platformErr, ok := err.(PlatformError); ok && platformErr.Code() == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err represents absent content.
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsTransportFailure reports whether err is a remote transport failure.
func IsTransportFailure(err error) bool { return HasCode(err, CodeTransportFailure) }

// IsResolution reports whether err is a group resolution failure.
func IsResolution(err error) bool { return HasCode(err, CodeResolution) }

// IsSuitability reports whether err means no store could accept a write.
func IsSuitability(err error) bool { return HasCode(err, CodeSuitability) }

// IsPolicyDenied reports whether err is a path-mask or readonly denial.
func IsPolicyDenied(err error) bool { return HasCode(err, CodePolicyDenied) }

// IsOverloaded reports whether err is a worker-pool admission failure.
func IsOverloaded(err error) bool { return HasCode(err, CodeOverloaded) }
