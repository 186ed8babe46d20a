package store

import (
	"testing"
	"time"
)

// fakeClock returns a fixed time, letting tests control timestamp
// arithmetic exactly. Shared by the other store tests.
type fakeClock struct {
	now int64
}

func (f *fakeClock) Now() int64 { return f.now }

func TestSystemClockUnixMillis(t *testing.T) {
	c := SystemClock{}
	got := c.Now()
	now := time.Now().UnixMilli()

	if got > now || now-got > 1000 {
		t.Errorf("SystemClock.Now() = %d, want within 1s of %d", got, now)
	}
}

func TestNextTimestampAdvances(t *testing.T) {
	c := &fakeClock{now: 1000}

	got := NextTimestamp(c, 500)
	if got != 1000 {
		t.Errorf("NextTimestamp with older prev = %d, want 1000", got)
	}
}

func TestNextTimestampStrictlyMonotonic(t *testing.T) {
	// Frozen clock: every call must still produce a larger stamp
	c := &fakeClock{now: 1000}

	prev := int64(0)
	for i := 0; i < 5; i++ {
		next := NextTimestamp(c, prev)
		if next <= prev {
			t.Fatalf("NextTimestamp(%d) = %d, not strictly greater", prev, next)
		}
		prev = next
	}

	if prev != 1004 {
		t.Errorf("after 5 calls on frozen clock prev = %d, want 1004", prev)
	}
}

func TestNextTimestampClockBehindPrev(t *testing.T) {
	// Clock regression (NTP step back): prev+1 keeps ordering intact
	c := &fakeClock{now: 100}

	got := NextTimestamp(c, 5000)
	if got != 5001 {
		t.Errorf("NextTimestamp with clock behind prev = %d, want 5001", got)
	}
}
