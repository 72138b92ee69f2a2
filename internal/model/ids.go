package model

import (
	"crypto/rand"
	"encoding/hex"
)

// newID generates an opaque identifier of the form "<prefix><10 hex chars>".
// Uniqueness is probabilistic (5 random bytes, ~1e12 possibilities) but
// sufficient at the in-memory scale the scheduler targets.
func newID(prefix string) string {
	var b [5]byte
	// crypto/rand.Read on the package-level Reader never returns a short
	// read without an error; an error here means the OS entropy source is
	// broken, which the caller cannot meaningfully recover from inline.
	if _, err := rand.Read(b[:]); err != nil {
		panic("model: failed to read random bytes for id: " + err.Error())
	}
	return prefix + hex.EncodeToString(b[:])
}

// NewJobID returns a new opaque job identifier, e.g. "job_3af9c21b07".
func NewJobID() string { return newID("job_") }

// NewEventID returns a new opaque event identifier, e.g. "evt_3af9c21b07".
func NewEventID() string { return newID("evt_") }
