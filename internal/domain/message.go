package domain

import (
	"strings"
	"time"
)

const MaxMessageSize = 5000

// Message Invariants:
// 1. Ordering: by CreatedAt, ties broken by ID (insertion order).
// 2. Immutability: never updated once persisted.
// 3. SenderID is a participant of ConversationID.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage validates an outgoing message against its conversation.
// The returned message has no ID yet; the store assigns it.
func NewMessage(conv *Conversation, senderID, text string, now time.Time) (*Message, error) {
	if conv == nil || senderID == "" {
		return nil, ErrInvalidInput
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	if err := conv.CanSend(senderID); err != nil {
		return nil, err
	}

	return &Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      now,
	}, nil
}

// Less orders messages by creation time, then id.
func (m *Message) Less(o *Message) bool {
	if m.CreatedAt.Equal(o.CreatedAt) {
		return m.ID < o.ID
	}
	return m.CreatedAt.Before(o.CreatedAt)
}
