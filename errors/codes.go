package errors

// ErrorCode identifies a class of failure.
// Codes are strings so they read well in logs and serialize naturally.
type ErrorCode string

const (
	// Content outcomes.

	// CodeNotFound indicates the requested content or store does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a store or resource is already registered.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Engine taxonomy.

	// CodeTransportFailure indicates a remote origin was unreachable, returned
	// an unexpected status or timed out.
	CodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"

	// CodeResolution indicates group membership could not be resolved, either
	// because of a cycle or because a member references an unknown store.
	CodeResolution ErrorCode = "RESOLUTION_ERROR"

	// CodeSuitability indicates no hosted store could accept a write.
	CodeSuitability ErrorCode = "NO_SUITABLE_STORE"

	// CodePolicyDenied indicates a path mask or readonly flag rejected the operation.
	CodePolicyDenied ErrorCode = "POLICY_DENIED"

	// CodeOverloaded indicates the worker pool refused to admit more work.
	CodeOverloaded ErrorCode = "OVERLOADED"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CUE errors.

	// CodeCUELoadFailed indicates a CUE or YAML configuration file could not be loaded.
	CodeCUELoadFailed ErrorCode = "CUE_LOAD_FAILED"

	// CodeCUEValidationFailed indicates configuration failed schema validation.
	CodeCUEValidationFailed ErrorCode = "CUE_VALIDATION_FAILED"

	// CodeCUEDecodeFailed indicates a CUE value could not be decoded into Go types.
	CodeCUEDecodeFailed ErrorCode = "CUE_DECODE_FAILED"

	// Infrastructure errors.

	// CodeStorage indicates the byte-level storage backend failed.
	CodeStorage ErrorCode = "STORAGE_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCanceled indicates the operation's context was canceled.
	CodeCanceled ErrorCode = "CANCELED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)
