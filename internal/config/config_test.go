package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverMemory)

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, DriverRedis, cfg.BroadcastDriver)
	assert.Equal(t, 2*time.Second, cfg.PresenceTTL)
	assert.Equal(t, time.UTC, cfg.DisplayTimezone)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/messaging")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("PRESENCE_TTL", "5s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WS_FRAMES_PER_SECOND", "2.5")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.HTTPPort)
	assert.Equal(t, "postgres://localhost/messaging", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.PresenceTTL)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2.5, cfg.WSFramesPerSecond)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
}

func TestFixPort(t *testing.T) {
	assert.Equal(t, ":8080", fixPort("8080"))
	assert.Equal(t, ":8080", fixPort(":8080"))
	assert.Equal(t, "", fixPort(""))
}
