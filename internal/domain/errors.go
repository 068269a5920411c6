package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = fmt.Errorf("%w: invalid session state", ErrConflict)
	ErrAlreadyClosed   = errors.New("session already closed")
	ErrPersistence     = errors.New("persistence failure")
	ErrNotification    = errors.New("notification failure")
	ErrArchival        = errors.New("archival failure")
	ErrSessionNotFound = errors.New("session not found")
	ErrTenantNotFound  = errors.New("tenant not found")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
