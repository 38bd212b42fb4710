package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

type Repository interface {
	// Conversations
	GetConversation(ctx context.Context, tx *sql.Tx, id string) (*domain.Conversation, error)
	GetConversationByLookupKey(ctx context.Context, tx *sql.Tx, key string) (*domain.Conversation, error)
	// InsertConversation reports false when another writer already owns the lookup key.
	InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation) (bool, error)
	InsertParticipant(ctx context.Context, tx *sql.Tx, convID, profileID string) error
	TouchConversation(ctx context.Context, tx *sql.Tx, convID string, at time.Time) error

	// Messaging
	InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error
	FetchMessages(ctx context.Context, convID string) ([]*domain.Message, error)
	LatestMessage(ctx context.Context, convID string) (*domain.Message, error)

	// Drafts
	UpsertDraft(ctx context.Context, tx *sql.Tx, draft *domain.Draft) error
	DeleteDraft(ctx context.Context, tx *sql.Tx, profileID, convID string) error
	GetDraft(ctx context.Context, profileID, convID string) (*domain.Draft, error)

	// Outbox
	InsertOutbox(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error
}

// Directory reads the profile and connection tables owned by the profile subsystem.
type Directory interface {
	GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	ListConnectedProfiles(ctx context.Context, profileID string) ([]*domain.Profile, error)
}
