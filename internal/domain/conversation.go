package domain

import (
	"fmt"
	"slices"
	"time"
)

// Conversation Invariants:
// 1. Membership: at most one conversation per unordered pair, enforced by LookupKey.
// 2. UpdatedAt moves forward on every appended message.
type Conversation struct {
	ID           string    `json:"id"`
	LookupKey    string    `json:"lookup_key"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Conversation) HasParticipant(profileID string) bool {
	return slices.Contains(c.Participants, profileID)
}

func (c *Conversation) CanSend(profileID string) error {
	if !c.HasParticipant(profileID) {
		return ErrNotParticipant
	}
	return nil
}

// Other returns the first participant that is not profileID.
func (c *Conversation) Other(profileID string) string {
	for _, p := range c.Participants {
		if p != profileID {
			return p
		}
	}
	return ""
}

// LookupKey normalizes an unordered pair so (a,b) and (b,a) collide.
func LookupKey(a, b string) (string, error) {
	if a == "" || b == "" || a == b {
		return "", ErrInvalidInput
	}
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("direct:%s:%s", a, b), nil
}
