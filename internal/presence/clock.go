package presence

import "time"

// DefaultTTL is how long an availability signal stays fresh. Clients in the
// messaging area re-assert presence faster than this.
const DefaultTTL = 2 * time.Second

// IsOnline reports whether lastSeen falls within ttl of now.
func IsOnline(lastSeen *time.Time, now time.Time, ttl time.Duration) bool {
	if lastSeen == nil {
		return false
	}
	return now.Sub(*lastSeen) <= ttl
}
