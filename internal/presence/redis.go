package presence

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

const DefaultRetention = time.Minute

type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisStore{client: client, retention: retention}
}

func profileKey(profileID string) string {
	return "presence:profile:" + profileID
}

// Set stores the signal. The key expires after the retention window so
// abandoned profiles fall back to "no record".
func (s *RedisStore) Set(ctx context.Context, profileID string, available bool, at time.Time) error {
	val, err := json.Marshal(Record{Available: available, At: at})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profileID), val, s.retention).Err()
}

func (s *RedisStore) Get(ctx context.Context, profileID string) (*Record, error) {
	b, err := s.client.Get(ctx, profileKey(profileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) GetMany(ctx context.Context, profileIDs []string) (map[string]*Record, error) {
	result := make(map[string]*Record, len(profileIDs))
	if len(profileIDs) == 0 {
		return result, nil
	}

	keys := make([]string, len(profileIDs))
	for i, id := range profileIDs {
		keys[i] = profileKey(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	log := observability.GetLogger(ctx)
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			log.Warn("presence: dropping unreadable record", zap.String("profile_id", profileIDs[i]), zap.Error(err))
			continue
		}
		result[profileIDs[i]] = &rec
	}

	return result, nil
}
