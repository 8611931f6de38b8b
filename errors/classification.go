package errors

// ErrorClassification indicates whether retrying an operation may succeed.
type ErrorClassification string

const (
	// ClassificationRetryable marks temporary failures such as timeouts,
	// transport failures and pool saturation.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent marks failures that will not change on retry,
	// such as cycles in group membership or policy denials.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry should be attempted.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeTransportFailure: ClassificationRetryable,
	CodeOverloaded:       ClassificationRetryable,
	CodeTimeout:          ClassificationRetryable,
	CodeStorage:          ClassificationRetryable,

	CodeNotFound:            ClassificationPermanent,
	CodeAlreadyExists:       ClassificationPermanent,
	CodeResolution:          ClassificationPermanent,
	CodeSuitability:         ClassificationPermanent,
	CodePolicyDenied:        ClassificationPermanent,
	CodeInvalidInput:        ClassificationPermanent,
	CodeInvalidConfig:       ClassificationPermanent,
	CodeCUELoadFailed:       ClassificationPermanent,
	CodeCUEValidationFailed: ClassificationPermanent,
	CodeCUEDecodeFailed:     ClassificationPermanent,
	CodeCanceled:            ClassificationPermanent,
	CodeInternal:            ClassificationPermanent,
	CodeUnknown:             ClassificationPermanent,
}

// getDefaultClassification returns the default classification for a code.
// Unknown codes are permanent.
func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
