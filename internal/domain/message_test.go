package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 45, 0, 0, time.UTC)
	conv := &Conversation{ID: "conv-1", Participants: []string{"alice", "bob"}}

	t.Run("trims_and_accepts_participant", func(t *testing.T) {
		msg, err := NewMessage(conv, "alice", "  hi there \n", now)
		require.NoError(t, err)
		assert.Equal(t, "hi there", msg.Text)
		assert.Equal(t, "conv-1", msg.ConversationID)
		assert.Equal(t, "alice", msg.SenderID)
		assert.Equal(t, now, msg.CreatedAt)
		assert.Zero(t, msg.ID)
	})

	t.Run("rejects_blank_text", func(t *testing.T) {
		_, err := NewMessage(conv, "alice", " \t ", now)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects_non_participant", func(t *testing.T) {
		_, err := NewMessage(conv, "mallory", "hello", now)
		assert.ErrorIs(t, err, ErrNotParticipant)
		assert.True(t, IsAuthorization(err))
	})

	t.Run("rejects_oversize_text", func(t *testing.T) {
		_, err := NewMessage(conv, "bob", strings.Repeat("x", MaxMessageSize+1), now)
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("rejects_missing_conversation", func(t *testing.T) {
		_, err := NewMessage(nil, "bob", "hello", now)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestMessageLess(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &Message{ID: 2, CreatedAt: t0}
	b := &Message{ID: 3, CreatedAt: t0}
	c := &Message{ID: 1, CreatedAt: t0.Add(time.Second)}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
}
