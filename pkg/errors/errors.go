package custom_error

import (
	"errors"
	"fmt"
)

// Class buckets errors by how the caller recovers from them.
type Class string

const (
	// ClassValidationMismatch: non-fatal scan/quantity mismatch, retry the same step.
	ClassValidationMismatch Class = "validation_mismatch"
	// ClassResourceConflict: lost a race on a shared resource, operator picks an alternative or retries.
	ClassResourceConflict Class = "resource_conflict"
	// ClassIntegrityViolation: committing would break quantity conservation; the whole batch is refused.
	ClassIntegrityViolation Class = "integrity_violation"
	// ClassSessionExpired: the session was swept, its task discarded.
	ClassSessionExpired Class = "session_expired"
	// ClassNotFound: unknown session/task/location/product, no mutation happened.
	ClassNotFound Class = "not_found"
)

// Error carries a machine code plus a bilingual operator message.
type Error struct {
	Class        Class  `json:"class"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	MessageLocal string `json:"message_local"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.Message, e.Code)
}

func New(class Class, code, message, messageLocal string) *Error {
	return &Error{Class: class, Code: code, Message: message, MessageLocal: messageLocal}
}

func NotFound(code, message, messageLocal string) *Error {
	return New(ClassNotFound, code, message, messageLocal)
}

func Conflict(code, message, messageLocal string) *Error {
	return New(ClassResourceConflict, code, message, messageLocal)
}

func Integrity(code, message, messageLocal string) *Error {
	return New(ClassIntegrityViolation, code, message, messageLocal)
}

func Mismatch(code, message, messageLocal string) *Error {
	return New(ClassValidationMismatch, code, message, messageLocal)
}

// ClassOf extracts the class from any error chain; unclassified errors
// default to integrity so callers fail safe.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassIntegrityViolation
}

func Is(err error, class Class) bool {
	var e *Error
	return errors.As(err, &e) && e.Class == class
}

// AsError unwraps the chain into a typed *Error when one is present.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}
