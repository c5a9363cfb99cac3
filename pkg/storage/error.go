package storage

import "errors"

// ErrNilRecord is returned by Put when given a nil record.
var ErrNilRecord = errors.New("cannot store nil call record")

// NotFoundError is returned when a call record doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "call record not found"
	}

	return "call record not found: " + e.ID
}
