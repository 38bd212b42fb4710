package domain

import "time"

type Draft struct {
	ProfileID      string    `json:"profile_id"`
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	UpdatedAt      time.Time `json:"updated_at"`
}
