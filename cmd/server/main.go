package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/application"
	"github.com/SARVESHVARADKAR123/RealChat/internal/broadcast"
	"github.com/SARVESHVARADKAR123/RealChat/internal/cache"
	"github.com/SARVESHVARADKAR123/RealChat/internal/config"
	"github.com/SARVESHVARADKAR123/RealChat/internal/handler"
	"github.com/SARVESHVARADKAR123/RealChat/internal/kafka"
	"github.com/SARVESHVARADKAR123/RealChat/internal/middleware"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
	"github.com/SARVESHVARADKAR123/RealChat/internal/outbox"
	"github.com/SARVESHVARADKAR123/RealChat/internal/presence"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository/memory"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository/postgres"
	"github.com/SARVESHVARADKAR123/RealChat/internal/router"
	"github.com/SARVESHVARADKAR123/RealChat/internal/server"
	"github.com/SARVESHVARADKAR123/RealChat/internal/store"
	"github.com/SARVESHVARADKAR123/RealChat/internal/supervisor"
	"github.com/SARVESHVARADKAR123/RealChat/internal/tx"
	"github.com/SARVESHVARADKAR123/RealChat/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	observability.InitLogger(cfg.ServiceName, cfg.LogLevel)
	log := observability.Log
	defer log.Sync()

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer tp.Shutdown(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.StoreDriver == config.DriverPostgres || cfg.BroadcastDriver == config.DriverRedis {
		redisClient = initRedis(ctx, cfg.RedisAddr, log)
		defer redisClient.Close()
	}

	tree := supervisor.NewTree(cfg.ServiceName, log, supervisor.TreeConfig{ShutdownTimeout: shutdownTimeout})

	db, conversations, directory := initStore(ctx, cfg, redisClient, log)
	if db != nil {
		defer db.Close()
	}

	hub := broadcast.NewHub()
	defer hub.CloseAll()
	registry, presenceStore := initSharedState(cfg, redisClient, hub, tree)

	svc := application.New(conversations, directory, presenceStore, registry, application.Options{
		PresenceTTL: cfg.PresenceTTL,
		Location:    cfg.DisplayTimezone,
	})

	if cfg.KafkaEnabled {
		closeKafka := initKafka(cfg, db, redisClient, tree, log)
		defer closeKafka()
	}

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	gateway := websocket.NewHandler(verifier, svc, registry, websocket.Options{
		ServiceName:     cfg.ServiceName,
		FramesPerSecond: cfg.WSFramesPerSecond,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	apiRouter := router.NewRouter(router.Handlers{
		Messaging: handler.NewMessagingHandler(svc),
		Presence:  handler.NewPresenceHandler(svc),
		Gateway:   gateway,
	}, verifier, svc, cfg)

	tree.AddAPIService(supervisor.NewHTTPService("api-server",
		server.New(cfg.HTTPPort, apiRouter), shutdownTimeout))
	tree.AddAPIService(supervisor.NewHTTPService("observability-server",
		server.New(cfg.HTTPAddr, initObservabilityRouter(cfg, db, redisClient)), shutdownTimeout))

	log.Info("service starting",
		zap.String("store", cfg.StoreDriver),
		zap.String("broadcast", cfg.BroadcastDriver),
		zap.Bool("kafka", cfg.KafkaEnabled))

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error("supervisor stopped", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete, exiting")
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func initStore(
	ctx context.Context,
	cfg *config.Config,
	redisClient *redis.Client,
	log *zap.Logger,
) (*sql.DB, *store.ConversationStore, repository.Directory) {

	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		mem := memory.New()
		return nil, store.New(mem, tx.Nop{}), mem
	}

	db, err := postgres.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}

	c := cache.New(redisClient)
	repo := &postgres.Repository{DB: db, Cache: c}
	conversations := store.New(repo, &tx.Manager{DB: db}, store.WithLatestCache(c))
	return db, conversations, &postgres.Directory{DB: db}
}

// initSharedState picks the broadcast registry and presence store. Both
// follow BROADCAST_DRIVER.
func initSharedState(
	cfg *config.Config,
	redisClient *redis.Client,
	hub *broadcast.Hub,
	tree *supervisor.Tree,
) (broadcast.Registry, presence.Store) {

	if cfg.BroadcastDriver != config.DriverRedis {
		return hub, presence.NewMemoryStore()
	}

	relay := broadcast.NewRedisRegistry(redisClient, hub)
	tree.AddBackgroundService(relay)
	return relay, presence.NewRedisStore(redisClient, cfg.PresenceRetention)
}

// initKafka registers the outbox relay and the activity projector. The
// returned func closes their clients once the tree has stopped.
func initKafka(cfg *config.Config, db *sql.DB, redisClient *redis.Client, tree *supervisor.Tree, log *zap.Logger) func() {
	var closers []func()

	if db == nil {
		log.Warn("kafka enabled without postgres; outbox relay disabled")
	} else {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		tree.AddBackgroundService(outbox.NewWorker(db, producer, cfg.OutboxBatchSize, cfg.OutboxPollDelay))
		closers = append(closers, func() {
			if err := producer.Close(); err != nil {
				log.Warn("kafka producer close failed", zap.Error(err))
			}
		})
	}

	if redisClient != nil {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, []string{cfg.KafkaTopic}, cfg.KafkaGroup,
			store.NewActivityProjector(cache.New(redisClient)))
		if err != nil {
			log.Fatal("failed to create kafka consumer", zap.Error(err))
		}
		tree.AddBackgroundService(consumer)
		closers = append(closers, consumer.Close)
	}

	return func() {
		for _, c := range closers {
			c()
		}
	}
}

func initObservabilityRouter(cfg *config.Config, db *sql.DB, redisClient *redis.Client) http.Handler {
	checks := map[string]observability.Pinger{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	mux := chi.NewRouter()
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(checks))
	return mux
}
