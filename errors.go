package prospectdb

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID signals an insert with an identifier that already
	// exists in the collection.
	ErrDuplicateID = errors.New("duplicate identifier")
	// ErrInvalidPredicate signals a malformed operator clause. This is a
	// programming error and always fails loudly.
	ErrInvalidPredicate = errors.New("invalid predicate")
)

// DuplicateIDError wraps ErrDuplicateID with the colliding identifier.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateID.Error(), e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// NewDuplicateID creates a duplicate identifier error.
func NewDuplicateID(id string) error {
	return &DuplicateIDError{ID: id}
}
