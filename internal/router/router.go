package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SARVESHVARADKAR123/RealChat/internal/config"
	"github.com/SARVESHVARADKAR123/RealChat/internal/handler"
	"github.com/SARVESHVARADKAR123/RealChat/internal/middleware"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

type Handlers struct {
	Messaging *handler.MessagingHandler
	Presence  *handler.PresenceHandler
	Gateway   http.Handler
}

func NewRouter(
	h Handlers,
	verifier *middleware.TokenVerifier,
	toucher middleware.PresenceToucher,
	cfg *config.Config,
) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))
	r.Use(middleware.Recovery())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health/live", observability.HealthLiveHandler)

	// The gateway authenticates the handshake itself so it can accept ?token=.
	if h.Gateway != nil {
		r.Handle("/ws/chat/{conversationID}", h.Gateway)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		api.Use(middleware.JWT(verifier))

		// Presence writes are not touched, so "off", DELETE and ignored tokens hold.
		api.Post("/presence", h.Presence.SetPresence)
		api.Delete("/presence", h.Presence.ClearPresence)

		api.Group(func(touched chi.Router) {
			touched.Use(middleware.PresenceTouch(toucher))

			touched.Get("/inbox", h.Messaging.Inbox)

			touched.Post("/messages", h.Messaging.SendMessage)
			touched.Get("/messages", h.Messaging.ListMessages)

			touched.Post("/typing", h.Messaging.Typing)

			touched.Post("/drafts", h.Messaging.SaveDraft)
			touched.Get("/drafts", h.Messaging.GetDraft)

			touched.Get("/presence", h.Presence.GetPresence)
		})
	})

	return otelhttp.NewHandler(r, cfg.ServiceName)
}
