package common

import "time"

// IsFresh returns true if the given timestamp is within the TTL of now.
// A zero timestamp or a non-positive TTL is never fresh.
func IsFresh(updated, now time.Time, ttl time.Duration) bool {
	if updated.IsZero() || ttl <= 0 {
		return false
	}
	return now.Sub(updated) < ttl
}
