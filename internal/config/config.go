package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	ServiceName string
	LogLevel    string
	HTTPPort    string
	HTTPAddr    string

	StoreDriver string
	DatabaseURL string
	RedisAddr   string

	BroadcastDriver string

	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroup      string
	OutboxBatchSize int
	OutboxPollDelay time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	PresenceTTL       time.Duration
	PresenceRetention time.Duration
	DisplayTimezone   *time.Location

	RateLimitRequests  int
	RateLimitWindow    string
	WSFramesPerSecond  float64
	CORSAllowedOrigins []string

	MetricsEnabled bool
	TracingEnabled bool
	JaegerURL      string
}

func Load() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "messaging-service"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    fixPort(getEnv("HTTP_PORT", ":8080")),
		HTTPAddr:    fixPort(getEnv("HTTP_ADDR", ":9090")),

		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		BroadcastDriver: getEnv("BROADCAST_DRIVER", DriverRedis),

		KafkaEnabled:    getEnvBool("KAFKA_ENABLED", false),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "messaging.events"),
		KafkaGroup:      getEnv("KAFKA_GROUP", "messaging-activity"),
		OutboxBatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
		OutboxPollDelay: getEnvDuration("OUTBOX_POLL_DELAY", 500*time.Millisecond),

		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		JWTIssuer:   getEnv("JWT_ISSUER", ""),
		JWTAudience: getEnv("JWT_AUDIENCE", ""),

		PresenceTTL:       getEnvDuration("PRESENCE_TTL", 2*time.Second),
		PresenceRetention: getEnvDuration("PRESENCE_RETENTION", time.Minute),
		DisplayTimezone:   getEnvLocation("DISPLAY_TIMEZONE", time.UTC),

		RateLimitRequests:  getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:    getEnv("RATE_LIMIT_WINDOW", "1m"),
		WSFramesPerSecond:  getEnvFloat("WS_FRAMES_PER_SECOND", 20),
		CORSAllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		JaegerURL:      getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}

	if cfg.StoreDriver == DriverPostgres {
		cfg.DatabaseURL = mustEnv("DATABASE_URL")
	}

	return cfg
}

func fixPort(port string) string {
	if port != "" && !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true"
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid int for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid float for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration for %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getEnvLocation(key string, fallback *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Printf("config: unknown timezone %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return loc
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env: %s", k)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
