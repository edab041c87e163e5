package table

import (
	"time"

	"github.com/google/uuid"
)

// Timer is a cancellable scheduled call.
type Timer interface {
	// Stop cancels the timer if it has not fired yet.
	Stop() bool
}

// Clock schedules the debounce callback. The wall clock is used in
// production; tests substitute a deterministic implementation so debounce
// behavior can be asserted without sleeping.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// realClock delegates to the time package.
type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

func (realClock) Now() time.Time { return time.Now() }

// IDGenerator produces row identifiers.
// Implemented by UUIDv4Generator (production) and fixed sequences (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDv4Generator generates random RFC 4122 version 4 identifiers.
// Stateless and safe for concurrent use.
type UUIDv4Generator struct{}

// NewID returns a new hyphenated UUIDv4 string.
func (UUIDv4Generator) NewID() string {
	return uuid.Must(uuid.NewRandom()).String()
}
