package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "clientele/pkg/domain-errors"
)

// MaxIDLength bounds identifiers accepted from the wire.
const MaxIDLength = 128

// ClientID identifies a client record. Values are opaque to callers: new
// records get a UUIDv4 string, and lookups accept any non-blank text so an
// unknown identifier yields not found rather than a validation failure.
type ClientID string

// NewClientID generates a fresh, never reused identifier.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

// ParseClientID trims and checks an identifier taken from external input.
func ParseClientID(s string) (ClientID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "client id is required").
			WithField("id", "client id is required")
	}
	if len(s) > MaxIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "client id is too long").
			WithField("id", "client id is too long")
	}
	return ClientID(s), nil
}

func (id ClientID) String() string {
	return string(id)
}

// IsNil reports whether the identifier is empty.
func (id ClientID) IsNil() bool {
	return id == ""
}

// SystemActor is recorded when no authenticated principal made the change.
const SystemActor = "system"
