package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshal(t *testing.T) {
	msg := &Message{Text: "hi", CreatedAt: time.Date(2026, 3, 1, 15, 45, 10, 0, time.UTC)}

	t.Run("message_shape", func(t *testing.T) {
		b, err := json.Marshal(NewMessageEvent("Bob", msg, time.UTC))
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"message","sender":"Bob","text":"hi","timestamp":"3:45 PM"}`, string(b))
	})

	t.Run("message_in_location", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*60*60)
		ev := NewMessageEvent("Bob", msg, loc)
		assert.Equal(t, "10:45 AM", ev.Timestamp)
	})

	t.Run("typing_false_is_kept", func(t *testing.T) {
		b, err := json.Marshal(NewTypingEvent("Alice", false))
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"typing","sender":"Alice","typing":false}`, string(b))
	})

	t.Run("unknown_kind", func(t *testing.T) {
		_, err := json.Marshal(Event{Kind: "presence"})
		assert.Error(t, err)
	})
}

func TestEventUnmarshal(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"typing","sender":"A","typing":true}`), &ev))
	assert.Equal(t, NewTypingEvent("A", true), ev)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bogus"}`), &ev))
}
