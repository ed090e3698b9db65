package repository

import "errors"

var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrUpdateFailed  = errors.New("update failed: record changed or missing")
	ErrInvalidID     = errors.New("invalid id")
)

// DuplicateError is returned when a unique index rejects a write.
type DuplicateError struct {
	// Field is the document field behind the violated index, if known.
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrAlreadyExists.Error()
	}
	return "duplicate value for " + e.Field
}

func (e *DuplicateError) Unwrap() error { return ErrAlreadyExists }
