package broadcast

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

const channelPrefix = "chat:"

// RedisRegistry shares groups across instances. Membership stays local;
// events travel through Redis and every instance's relay loop hands them to
// its own Hub, so each live channel receives an event exactly once.
type RedisRegistry struct {
	client *redis.Client
	local  *Hub
}

func NewRedisRegistry(client *redis.Client, local *Hub) *RedisRegistry {
	return &RedisRegistry{client: client, local: local}
}

func channel(groupID string) string {
	return channelPrefix + groupID
}

func (r *RedisRegistry) Subscribe(ctx context.Context, groupID string, h Handle) error {
	return r.local.Subscribe(ctx, groupID, h)
}

func (r *RedisRegistry) Unsubscribe(ctx context.Context, groupID string, h Handle) error {
	return r.local.Unsubscribe(ctx, groupID, h)
}

func (r *RedisRegistry) Publish(ctx context.Context, groupID string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	log := observability.GetLogger(ctx)
	log.Debug("publishing to group", zap.String("group_id", groupID))

	if err := r.client.Publish(ctx, channel(groupID), payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientDelivery, err)
	}
	return nil
}

// Serve runs the relay loop until ctx is canceled. It implements suture.Service.
func (r *RedisRegistry) Serve(ctx context.Context) error {
	pattern := channelPrefix + "*"
	pubsub := r.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}

	log := observability.GetLogger(ctx)
	log.Info("broadcast: relay subscribed", zap.String("pattern", pattern))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("broadcast: relay loop stopping: context canceled")
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				log.Warn("broadcast: pubsub channel closed")
				return fmt.Errorf("%w: pubsub channel closed", domain.ErrTransientDelivery)
			}
			groupID := strings.TrimPrefix(msg.Channel, channelPrefix)
			r.local.Deliver(ctx, groupID, []byte(msg.Payload))
		}
	}
}

func (r *RedisRegistry) String() string {
	return "broadcast-relay"
}
