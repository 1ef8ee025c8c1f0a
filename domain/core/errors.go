package core

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("resource not found")

// NewNotFoundError builds a not-found error for a resource and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err is any kind of not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
