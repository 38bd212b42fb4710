package store

import (
	"context"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

// ActivityProjector folds MESSAGE_SENT events from the outbox topic into
// the latest-message cache the inbox reads.
type ActivityProjector struct {
	cache LatestCache
}

func NewActivityProjector(cache LatestCache) *ActivityProjector {
	return &ActivityProjector{cache: cache}
}

func (p *ActivityProjector) Handle(ctx context.Context, record []byte) {
	log := observability.GetLogger(ctx)

	var env domain.Envelope
	if err := json.Unmarshal(record, &env); err != nil {
		log.Warn("activity: bad envelope", zap.Error(err))
		return
	}

	if env.EventType != domain.EventTypeMessageSent {
		return
	}

	var event domain.MessageSentEvent
	if err := json.Unmarshal(env.Payload, &event); err != nil || event.Message == nil {
		log.Warn("activity: bad message payload", zap.Error(err))
		return
	}

	if err := p.cache.SetLatestMessage(ctx, event.Message); err != nil {
		log.Error("activity: failed to project latest message",
			zap.String("conversation_id", event.Message.ConversationID),
			zap.Error(err))
	}
}
