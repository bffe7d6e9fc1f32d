package tts

import (
	"github.com/oklog/ulid/v2"
)

// NewID returns a fresh, lexically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}
