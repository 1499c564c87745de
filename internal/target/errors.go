package target

import (
	"errors"
	"fmt"
)

const (
	// CodeConfigMissing means the target has partial or no credentials.
	// The target is skipped for the whole run, never treated as fatal.
	CodeConfigMissing = "E_CONFIG_MISSING"

	// CodeUnauthorized means the remote rejected the credentials. The
	// (file, target) pair stays dirty for the next invocation.
	CodeUnauthorized = "E_UNAUTHORIZED"

	// CodeNotFound means a previously recorded remote id no longer
	// resolves, or a requested local file is absent.
	CodeNotFound = "E_NOT_FOUND"

	// CodeRateLimited means the remote throttled the request.
	CodeRateLimited = "E_RATE_LIMITED"

	// CodeTransient covers network and 5xx failures. No automatic retry
	// within the run; the pair stays dirty.
	CodeTransient = "E_TRANSIENT"

	CodeUnknown = "E_UNKNOWN"
)

// Error is a classified target failure. Code drives the orchestrator's
// policy (retry-as-create on not-found, leave-dirty otherwise).
type Error struct {
	Code    string
	Target  string
	Op      string
	Message string
	Err     error
}

func NewError(code, targetName, op, message string) *Error {
	return &Error{
		Code:    code,
		Target:  targetName,
		Op:      op,
		Message: message,
	}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s %s - %s", e.Target, e.Op, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s - %v", e.Target, e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s %s", e.Target, e.Op, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func codeOf(err error) string {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Code
	}
	return ""
}

func IsUnauthorized(err error) bool {
	return codeOf(err) == CodeUnauthorized
}

func IsNotFound(err error) bool {
	return codeOf(err) == CodeNotFound
}

func IsRateLimited(err error) bool {
	return codeOf(err) == CodeRateLimited
}

func IsTransient(err error) bool {
	c := codeOf(err)
	return c == CodeTransient || c == CodeRateLimited
}
