package id

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a random identifier suitable for session keys.
func New() string {
	return uuid.NewString()
}

// Short returns 8 lowercase hex characters drawn from a fresh random UUID.
func Short() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
