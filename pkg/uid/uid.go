package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// NewFileName generates a unique stored name for an uploaded file,
// preserving the (already validated) extension.
func NewFileName(ext string) string {
	return uuid.New().String() + strings.ToLower(ext)
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
