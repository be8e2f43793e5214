package utils

import (
	"log"

	"github.com/google/uuid"
)

// GenerateSessionToken mints the opaque token embedded in a trip QR payload
func GenerateSessionToken() string {
	id, err := uuid.NewUUID()
	if err != nil {
		log.Fatal("Failed to generate a unique session token", err)
	}
	return "sess-" + id.String()
}

// GenerateID returns a unique identifier for stored records
func GenerateID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		log.Fatal("Failed to generate a unique ID", err)
	}
	return id.String()
}
