package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

const (
	conversationTTL = 10 * time.Minute
	latestTTL       = 24 * time.Hour
)

type Cache struct {
	Client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{Client: client}
}

func conversationKey(id string) string { return "conv:" + id }

func latestKey(id string) string { return "conv:" + id + ":latest" }

func (c *Cache) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	val, err := c.Client.Get(ctx, conversationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Miss
		}
		return nil, err
	}

	var conv domain.Conversation
	if err := json.Unmarshal(val, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Cache) SetConversation(ctx context.Context, conv *domain.Conversation) error {
	val, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, conversationKey(conv.ID), val, conversationTTL).Err()
}

// GetLatestMessage returns the projected newest message of a conversation, nil on miss.
func (c *Cache) GetLatestMessage(ctx context.Context, convID string) (*domain.Message, error) {
	val, err := c.Client.Get(ctx, latestKey(convID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var msg domain.Message
	if err := json.Unmarshal(val, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetLatestMessage keeps the entry with the highest message id, so replays are harmless.
func (c *Cache) SetLatestMessage(ctx context.Context, msg *domain.Message) error {
	current, err := c.GetLatestMessage(ctx, msg.ConversationID)
	if err != nil {
		return err
	}
	if current != nil && current.ID >= msg.ID {
		return nil
	}

	val, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, latestKey(msg.ConversationID), val, latestTTL).Err()
}
