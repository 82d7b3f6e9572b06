package ports

import "time"

// Clock supplies the current instant. Injected rather than read from
// the ambient time package so expiration checks are deterministic under
// test. Each orchestrator operation reads the clock exactly once.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, reporting UTC wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
