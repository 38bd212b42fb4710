package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

const (
	SourceLiveChannel = "websocket"
	SourceHTTP        = "http"
)

type SendMessageCommand struct {
	UserID         string
	ConversationID string
	Text           string
	Source         string
}

// SendMessage persists the message and then fans it out to the group.
// A failed publish is logged; the message is already durable.
func (s *Service) SendMessage(ctx context.Context, cmd SendMessageCommand) (*domain.Message, error) {
	profile, conv, err := s.Authorize(ctx, cmd.UserID, cmd.ConversationID)
	if err != nil {
		return nil, err
	}

	msg, err := s.conversations.AppendMessage(ctx, conv.ID, profile.ID, cmd.Text)
	if err != nil {
		return nil, err
	}

	source := cmd.Source
	if source == "" {
		source = SourceHTTP
	}
	observability.MessagesSentTotal.WithLabelValues(source).Inc()

	s.publish(ctx, conv.ID, domain.NewMessageEvent(profile.Name(), msg, s.loc))
	return msg, nil
}

// SendTyping broadcasts a typing signal. Nothing is persisted.
func (s *Service) SendTyping(ctx context.Context, userID, convID string, typing bool) error {
	profile, conv, err := s.Authorize(ctx, userID, convID)
	if err != nil {
		return err
	}

	s.publish(ctx, conv.ID, domain.NewTypingEvent(profile.Name(), typing))
	return nil
}

func (s *Service) ListMessages(ctx context.Context, userID, convID string) ([]*domain.Message, error) {
	_, conv, err := s.Authorize(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conv.ID)
}

func (s *Service) publish(ctx context.Context, groupID string, event domain.Event) {
	if err := s.registry.Publish(ctx, groupID, event); err != nil {
		observability.GetLogger(ctx).Warn("broadcast failed",
			zap.String("conversation_id", groupID),
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}
