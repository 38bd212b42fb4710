package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/application"
	"github.com/SARVESHVARADKAR123/RealChat/internal/broadcast"
	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
	"github.com/SARVESHVARADKAR123/RealChat/internal/transport"
)

// Authenticator resolves the caller of a handshake request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// Messaging is the shared procedure the live channel drives.
type Messaging interface {
	Authorize(ctx context.Context, userID, convID string) (*domain.Profile, *domain.Conversation, error)
	SendMessage(ctx context.Context, cmd application.SendMessageCommand) (*domain.Message, error)
	SendTyping(ctx context.Context, userID, convID string, typing bool) error
}

type Options struct {
	ServiceName     string
	FramesPerSecond float64
	AllowedOrigins  []string
}

type Handler struct {
	auth     Authenticator
	svc      Messaging
	registry broadcast.Registry
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(auth Authenticator, svc Messaging, registry broadcast.Registry, opts Options) *Handler {
	h := &Handler{auth: auth, svc: svc, registry: registry, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP runs one live channel from handshake to close. Anonymous callers
// are refused before the conversation is read; non-participants are refused
// without upgrading.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observability.GetLogger(ctx)
	convID := chi.URLParam(r, "conversationID")

	userID, err := h.auth.Authenticate(r)
	if err != nil {
		transport.WriteError(w, http.StatusUnauthorized, transport.CodeUnauthorized, "authentication required")
		return
	}

	_, conv, err := h.svc.Authorize(ctx, userID, convID)
	if err != nil {
		log.Info("live channel refused",
			zap.String("user_id", userID),
			zap.String("conversation_id", convID),
			zap.Error(err))
		transport.WriteDomainError(w, r, err)
		return
	}

	session := NewSession(uuid.NewString(), userID, conv.ID, h.opts.FramesPerSecond)
	if err := h.registry.Subscribe(ctx, conv.ID, session); err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}
	defer func() {
		session.Close()
		if err := h.registry.Unsubscribe(context.WithoutCancel(ctx), conv.ID, session); err != nil {
			log.Warn("unsubscribe failed", zap.String("session_id", session.ID()), zap.Error(err))
		}
	}()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade error", zap.Error(err))
		return
	}
	if !session.Attach(conn) {
		return
	}

	observability.WebSocketConnectionsTotal.WithLabelValues(h.opts.ServiceName).Inc()
	defer observability.WebSocketConnectionsTotal.WithLabelValues(h.opts.ServiceName).Dec()

	log.Info("connected",
		zap.String("session_id", session.ID()),
		zap.String("user_id", userID),
		zap.String("conversation_id", conv.ID))

	h.readLoop(ctx, session, conn)

	log.Info("disconnected",
		zap.String("session_id", session.ID()),
		zap.String("user_id", userID),
		zap.String("conversation_id", conv.ID))
}

func (h *Handler) readLoop(ctx context.Context, s *Session, conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger().Debug("read loop error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if mt != websocket.TextMessage {
			observability.WebSocketFramesTotal.WithLabelValues("ignored").Inc()
			continue
		}
		if !s.Allow() {
			observability.WebSocketFramesTotal.WithLabelValues("rate_limited").Inc()
			continue
		}

		h.handleFrame(ctx, s, ParseFrame(data))
	}
}

// handleFrame never reports failures to the client.
func (h *Handler) handleFrame(ctx context.Context, s *Session, f Frame) {
	observability.WebSocketFramesTotal.WithLabelValues(f.Kind.String()).Inc()

	var err error
	switch f.Kind {
	case FrameTyping:
		err = h.svc.SendTyping(ctx, s.UserID, s.ConversationID, f.Typing)
	case FrameMessage:
		if strings.TrimSpace(f.Text) == "" {
			return
		}
		_, err = h.svc.SendMessage(ctx, application.SendMessageCommand{
			UserID:         s.UserID,
			ConversationID: s.ConversationID,
			Text:           f.Text,
			Source:         application.SourceLiveChannel,
		})
	}
	if err != nil {
		s.logger().Debug("frame dropped", zap.String("kind", f.Kind.String()), zap.Error(err))
	}
}
