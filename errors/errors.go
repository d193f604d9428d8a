package errors

import (
	"fmt"
	"sort"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// --- Build error constructors ---

// NoApplicableRule reports an argument set that no rule accepts.
func NoApplicableRule(process string, arguments map[string]any) *AppError {
	return &AppError{
		Code:    ErrCodeNoApplicableRule,
		Message: fmt.Sprintf("No applicable %s rule for parameters: %s", process, formatArguments(arguments)),
		Details: map[string]any{"process": process, "arguments": arguments},
	}
}

// CommandFailed reports a spawned command that exited with a non-zero status.
func CommandFailed(command []string, status int) *AppError {
	return &AppError{
		Code:    ErrCodeCommandFailed,
		Message: fmt.Sprintf("Command %q failed with status %d", strings.Join(command, " "), status),
		Details: map[string]any{"command": command, "status": status},
	}
}

// AlreadyDefined reports a second definition of a named entity. Both
// definition locations are named.
func AlreadyDefined(kind, name, origin, previous string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyDefined,
		Message: fmt.Sprintf("Definition %s %s in %s has already been defined in %s", kind, name, origin, previous),
		Details: map[string]any{"kind": kind, "name": name, "origin": origin, "previous": previous},
	}
}

// MissingBuildTask reports a package without a build routine for a platform.
func MissingBuildTask(pkg, platform string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingBuildTask,
		Message: fmt.Sprintf("Could not find build task for %s in package %s", platform, pkg),
		Details: map[string]any{"package": pkg, "platform": platform},
	}
}

// DependencyCycle reports a cyclic dependency chain.
func DependencyCycle(path []string) *AppError {
	return &AppError{
		Code:    ErrCodeDependencyCycle,
		Message: "Dependency cycle detected: " + strings.Join(path, " -> "),
		Details: map[string]any{"path": path},
	}
}

// NotFound reports a missing named entity.
func NotFound(kind, name string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("The requested %s %q was not found.", kind, name),
		Details: map[string]any{"kind": kind, "name": name},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// formatArguments renders arguments with sorted keys so messages are stable.
func formatArguments(arguments map[string]any) string {
	keys := make([]string, 0, len(arguments))
	for k := range arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, arguments[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
