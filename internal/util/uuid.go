package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// NewImportID returns a random URL-safe ID of 22 symbols
func NewImportID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])
}
