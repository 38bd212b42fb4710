package presence

import (
	"context"
	"time"
)

// Record is the last availability signal a profile sent.
type Record struct {
	Available bool      `json:"available"`
	At        time.Time `json:"at"`
}

// Online evaluates the record with the presence clock.
func (r *Record) Online(now time.Time, ttl time.Duration) bool {
	if r == nil || !r.Available {
		return false
	}
	return IsOnline(&r.At, now, ttl)
}

// Store keeps ephemeral presence apart from the durable profile.
type Store interface {
	Set(ctx context.Context, profileID string, available bool, at time.Time) error
	Get(ctx context.Context, profileID string) (*Record, error)
	// GetMany returns records for the ids that have one; absent ids are omitted.
	GetMany(ctx context.Context, profileIDs []string) (map[string]*Record, error)
}
