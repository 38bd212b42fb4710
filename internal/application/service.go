package application

import (
	"context"
	"time"

	"github.com/SARVESHVARADKAR123/RealChat/internal/broadcast"
	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/presence"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository"
)

// Conversations is the slice of store.ConversationStore the procedures need.
type Conversations interface {
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	FindOrCreateConversation(ctx context.Context, a, b string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, convID, senderID, text string) (*domain.Message, error)
	ListMessages(ctx context.Context, convID string) ([]*domain.Message, error)
	LatestMessage(ctx context.Context, convID string) (*domain.Message, error)
	UpsertDraft(ctx context.Context, profileID, convID, text string) error
	GetDraft(ctx context.Context, profileID, convID string) (string, error)
}

type Options struct {
	PresenceTTL time.Duration
	Location    *time.Location
	Now         func() time.Time
}

// Service is the single authorize/validate/persist/publish path shared by
// the live channel and the HTTP handlers.
type Service struct {
	conversations Conversations
	directory     repository.Directory
	presence      presence.Store
	registry      broadcast.Registry

	ttl time.Duration
	loc *time.Location
	now func() time.Time
}

func New(
	conversations Conversations,
	directory repository.Directory,
	presenceStore presence.Store,
	registry broadcast.Registry,
	opts Options,
) *Service {
	s := &Service{
		conversations: conversations,
		directory:     directory,
		presence:      presenceStore,
		registry:      registry,
		ttl:           opts.PresenceTTL,
		loc:           opts.Location,
		now:           opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = presence.DefaultTTL
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Profile resolves the caller's profile.
func (s *Service) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.directory.GetProfileByUserID(ctx, userID)
}

// Authorize checks that userID's profile participates in convID.
func (s *Service) Authorize(ctx context.Context, userID, convID string) (*domain.Profile, *domain.Conversation, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	conv, err := s.conversations.GetConversation(ctx, convID)
	if err != nil {
		return nil, nil, err
	}

	if err := conv.CanSend(profile.ID); err != nil {
		return nil, nil, err
	}
	return profile, conv, nil
}
