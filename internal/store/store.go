package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository"
	"github.com/SARVESHVARADKAR123/RealChat/internal/tx"
)

// LatestCache holds the projected newest message per conversation.
type LatestCache interface {
	GetLatestMessage(ctx context.Context, convID string) (*domain.Message, error)
	SetLatestMessage(ctx context.Context, msg *domain.Message) error
}

// ConversationStore owns the persistence invariants of conversations,
// messages and drafts.
type ConversationStore struct {
	repo   repository.Repository
	tx     tx.Transactor
	latest LatestCache
	now    func() time.Time
	newID  func() string
}

type Option func(*ConversationStore)

func WithLatestCache(c LatestCache) Option {
	return func(s *ConversationStore) { s.latest = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *ConversationStore) { s.now = now }
}

func New(repo repository.Repository, transactor tx.Transactor, opts ...Option) *ConversationStore {
	s := &ConversationStore{
		repo:  repo,
		tx:    transactor,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("conversation id %q: %w", id, domain.ErrInvalidInput)
	}
	return s.repo.GetConversation(ctx, nil, id)
}

// FindOrCreateConversation returns the single conversation for the unordered
// pair {a, b}. Concurrent callers converge on one row through the unique
// lookup key: the loser of the insert re-reads the winner's conversation.
func (s *ConversationStore) FindOrCreateConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	lookupKey, err := domain.LookupKey(a, b)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetConversationByLookupKey(ctx, nil, lookupKey); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	var result *domain.Conversation
	txErr := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		now := s.now()
		conv := &domain.Conversation{
			ID:           s.newID(),
			LookupKey:    lookupKey,
			Participants: []string{a, b},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		inserted, err := s.repo.InsertConversation(ctx, tx, conv)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		if !inserted {
			existing, err := s.repo.GetConversationByLookupKey(ctx, tx, lookupKey)
			if err != nil {
				return fmt.Errorf("failed to refetch conversation after conflict: %w", err)
			}
			result = existing
			return nil
		}

		for _, p := range conv.Participants {
			if err := s.repo.InsertParticipant(ctx, tx, conv.ID, p); err != nil {
				return fmt.Errorf("failed to add participant %s: %w", p, err)
			}
		}

		result = conv
		return nil
	})

	return result, txErr
}

// AppendMessage validates and persists a message, touching the
// conversation and recording the outbox event in the same transaction.
func (s *ConversationStore) AppendMessage(ctx context.Context, convID, senderID, text string) (*domain.Message, error) {
	conv, err := s.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}

	msg, err := domain.NewMessage(conv, senderID, text, s.now())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.repo.InsertMessage(ctx, tx, msg); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}

		if err := s.repo.TouchConversation(ctx, tx, conv.ID, msg.CreatedAt); err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}

		envelope, err := domain.NewMessageSentEnvelope(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal event envelope: %w", err)
		}

		if err := s.repo.InsertOutbox(
			ctx, tx,
			domain.AggregateConversation,
			conv.ID,
			domain.EventTypeMessageSent,
			envelope,
		); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// The projector lags behind commits; write the committed message through.
	if s.latest != nil {
		if err := s.latest.SetLatestMessage(ctx, msg); err != nil {
			observability.GetLogger(ctx).Warn("latest message cache write failed",
				zap.String("conversation_id", conv.ID), zap.Error(err))
		}
	}

	return msg, nil
}

func (s *ConversationStore) ListMessages(ctx context.Context, convID string) ([]*domain.Message, error) {
	if convID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.FetchMessages(ctx, convID)
}

// LatestMessage prefers the projected value and falls back to the table.
func (s *ConversationStore) LatestMessage(ctx context.Context, convID string) (*domain.Message, error) {
	if s.latest != nil {
		msg, err := s.latest.GetLatestMessage(ctx, convID)
		if err == nil && msg != nil {
			return msg, nil
		}
		if err != nil {
			observability.GetLogger(ctx).Warn("latest message cache read failed",
				zap.String("conversation_id", convID), zap.Error(err))
		}
	}
	return s.repo.LatestMessage(ctx, convID)
}

// UpsertDraft saves trimmed non-empty text, and deletes the draft otherwise.
// Deleting a draft that does not exist is not an error.
func (s *ConversationStore) UpsertDraft(ctx context.Context, profileID, convID, text string) error {
	if profileID == "" || convID == "" {
		return domain.ErrInvalidInput
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return s.repo.DeleteDraft(ctx, nil, profileID, convID)
	}

	return s.repo.UpsertDraft(ctx, nil, &domain.Draft{
		ProfileID:      profileID,
		ConversationID: convID,
		Text:           text,
		UpdatedAt:      s.now(),
	})
}

func (s *ConversationStore) GetDraft(ctx context.Context, profileID, convID string) (string, error) {
	d, err := s.repo.GetDraft(ctx, profileID, convID)
	if err != nil {
		if errors.Is(err, domain.ErrDraftNotFound) {
			return "", nil
		}
		return "", err
	}
	return d.Text, nil
}
