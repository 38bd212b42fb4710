package domain

import (
	"time"

	"github.com/goccy/go-json"
)

const (
	AggregateConversation = "conversation"
	EventTypeMessageSent  = "MESSAGE_SENT"
	EventSchemaVersion    = 1
)

// Envelope wraps outbox payloads published to Kafka.
type Envelope struct {
	EventType     string          `json:"event_type"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type MessageSentEvent struct {
	Message *Message `json:"message"`
}

func NewMessageSentEnvelope(msg *Message) ([]byte, error) {
	payload, err := json.Marshal(MessageSentEvent{Message: msg})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		EventType:     EventTypeMessageSent,
		SchemaVersion: EventSchemaVersion,
		OccurredAt:    msg.CreatedAt,
		Payload:       payload,
	})
}
