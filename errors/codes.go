package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Build errors
const (
	// ErrCodeNoApplicableRule indicates an argument set matched no rule.
	ErrCodeNoApplicableRule ErrorCode = "NO_APPLICABLE_RULE"
	// ErrCodeCommandFailed indicates a spawned process exited non-zero.
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"
	// ErrCodeMissingBuildTask indicates a package has no routine for a platform.
	ErrCodeMissingBuildTask ErrorCode = "MISSING_BUILD_TASK"
	// ErrCodeDependencyCycle indicates a cyclic dependency set.
	ErrCodeDependencyCycle ErrorCode = "DEPENDENCY_CYCLE"
)

// Definition errors
const (
	// ErrCodeAlreadyDefined indicates a named entity was registered twice.
	ErrCodeAlreadyDefined ErrorCode = "ALREADY_DEFINED"
	// ErrCodeNotFound indicates a named entity does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
