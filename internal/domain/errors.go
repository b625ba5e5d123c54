package domain

import "errors"

// ErrNotFound is returned when a record does not exist or belongs to
// another user. Callers must not be able to tell the two cases apart.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a write before any mutation happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
