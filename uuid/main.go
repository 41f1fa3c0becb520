package uuid

import (
	"github.com/google/uuid"
)

// New returns a random (version 4) id.
func New() string {
	return uuid.NewString()
}

func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)

	return err == nil
}
