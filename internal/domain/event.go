package domain

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

type EventKind string

const (
	EventMessage EventKind = "message"
	EventTyping  EventKind = "typing"
)

// TimestampLayout renders message times the way clients display them, e.g. "3:45 PM".
const TimestampLayout = "3:04 PM"

// Event is what a broadcast group fans out to its live channels.
type Event struct {
	Kind      EventKind
	Sender    string
	Text      string
	Timestamp string
	Typing    bool
}

type messagePayload struct {
	Kind      EventKind `json:"kind"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp string    `json:"timestamp"`
}

type typingPayload struct {
	Kind   EventKind `json:"kind"`
	Sender string    `json:"sender"`
	Typing bool      `json:"typing"`
}

func NewMessageEvent(sender string, msg *Message, loc *time.Location) Event {
	if loc == nil {
		loc = time.UTC
	}
	return Event{
		Kind:      EventMessage,
		Sender:    sender,
		Text:      msg.Text,
		Timestamp: msg.CreatedAt.In(loc).Format(TimestampLayout),
	}
}

func NewTypingEvent(sender string, typing bool) Event {
	return Event{Kind: EventTyping, Sender: sender, Typing: typing}
}

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventMessage:
		return json.Marshal(messagePayload{
			Kind:      e.Kind,
			Sender:    e.Sender,
			Text:      e.Text,
			Timestamp: e.Timestamp,
		})
	case EventTyping:
		return json.Marshal(typingPayload{
			Kind:   e.Kind,
			Sender: e.Sender,
			Typing: e.Typing,
		})
	default:
		return nil, fmt.Errorf("unknown event kind %q: %w", e.Kind, ErrInvalidInput)
	}
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Kind      EventKind `json:"kind"`
		Sender    string    `json:"sender"`
		Text      string    `json:"text"`
		Timestamp string    `json:"timestamp"`
		Typing    bool      `json:"typing"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Kind != EventMessage && raw.Kind != EventTyping {
		return fmt.Errorf("unknown event kind %q: %w", raw.Kind, ErrInvalidInput)
	}
	*e = Event(raw)
	return nil
}
