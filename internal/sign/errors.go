package sign

import "fmt"

// UsageError is a user-correctable mistake detected before any signing
// attempt: conflicting ids, a missing required channel, an unsupported
// proxy, malformed metadata JSON, or an empty id file.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

// usagef builds a UsageError from a format string.
func usagef(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// BackendError wraps a failure from the build step, a signing backend, or
// an explicit non-success backend result. The original message is preserved;
// callers see one opaque error.
type BackendError struct {
	msg   string
	cause error
}

func (e *BackendError) Error() string { return e.msg }

func (e *BackendError) Unwrap() error { return e.cause }

// backendErr wraps cause into a BackendError carrying its message.
func backendErr(cause error) *BackendError {
	return &BackendError{msg: cause.Error(), cause: cause}
}
