package custom_error

import "fmt"

type UniqueViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23505")
}

type ForeignKeyViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23503")
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

// WrapDBError maps raw PostgreSQL error codes onto typed errors.
func WrapDBError(message, code string) error {
	switch code {
	case "23505":
		return &UniqueViolationError{message: message, code: code}
	case "23503":
		return &ForeignKeyViolationError{message: "Value is already used by other resources " + message, code: code}
	case "23514":
		// check constraint, the quantity guards live in the schema too
		return Integrity("ledger_check_violation", message, "Naruszenie spójności stanu magazynowego")
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}
