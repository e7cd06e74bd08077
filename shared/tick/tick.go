// Package tick implements the wrapping simulation clock shared by client and server.
package tick

import "github.com/automoto/driftline/shared/netconfig"

// Timestamp counts fixed simulation steps. It wraps on overflow, so ordering
// must always go through Sub rather than plain comparison.
type Timestamp uint32

// Add returns t advanced by n ticks, wrapping.
func (t Timestamp) Add(n int32) Timestamp {
	return Timestamp(uint32(t) + uint32(n))
}

// Sub returns the signed wrapping distance t - u. The result is correct as
// long as the two stamps are less than 2^31 ticks apart.
func (t Timestamp) Sub(u Timestamp) int32 {
	return int32(uint32(t) - uint32(u))
}

// Before reports whether t happened strictly before u.
func (t Timestamp) Before(u Timestamp) bool {
	return t.Sub(u) < 0
}

// Slot is the ring buffer index for t.
func (t Timestamp) Slot() int {
	return int(uint32(t) % netconfig.RingLen)
}

// Within reports whether t is at most window ticks behind now and not ahead of it.
func (t Timestamp) Within(now Timestamp, window int32) bool {
	d := now.Sub(t)
	return d >= 0 && d < window
}
