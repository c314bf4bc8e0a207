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

// Domain-specific ID types
type (
	EstimateID ID
	SweepID    ID
)

func NewEstimateID() EstimateID { return EstimateID(NewID()) }
func NewSweepID() SweepID       { return SweepID(NewID()) }

func (id EstimateID) String() string { return ID(id).String() }
func (id SweepID) String() string    { return ID(id).String() }

// ParseEstimateID parses a string into EstimateID
func ParseEstimateID(s string) (EstimateID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("estimate ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("estimate ID %q is not a UUID: %w", s, err)
	}
	return EstimateID(s), nil
}
