package store

import "time"

// Clock supplies millisecond timestamps for note mutations.
// An interface so tests can drive the merge logic with fixed times.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock in Unix milliseconds.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// NextTimestamp returns a stamp strictly greater than prev.
// Two mutations landing in the same millisecond would otherwise carry
// equal updated values and become unresolvable by last-writer-wins,
// so a non-advancing clock bumps prev by one instead.
func NextTimestamp(c Clock, prev int64) int64 {
	now := c.Now()
	if now > prev {
		return now
	}
	return prev + 1
}
