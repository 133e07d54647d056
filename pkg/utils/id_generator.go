package utils

import (
	"github.com/google/uuid"
)

// GenerateID creates a new UUID v4 string for use as a report identifier.
// UUIDs can be generated on any device without coordination, which matters
// here because reports are created by offline-capable mobile clients.
func GenerateID() string {
	return uuid.New().String()
}
