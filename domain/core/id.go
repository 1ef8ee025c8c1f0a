package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// BlockID identifies a stored observation block
type BlockID ID

func (id BlockID) String() string { return ID(id).String() }

// NewBlockID creates a new time-ordered block identifier
func NewBlockID() BlockID {
	return BlockID(NewID())
}

// ParseBlockID parses and validates a block identifier
func ParseBlockID(s string) (BlockID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("block ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("block ID %q is not a UUID: %w", s, err)
	}
	return BlockID(s), nil
}
