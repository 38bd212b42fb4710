package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

const (
	SendQueueSize = 128
	maxFrameSize  = 64 * 1024
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

type State int32

const (
	StateConnecting State = iota
	StateAuthorized
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorized:
		return "authorized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one live channel bound to a single conversation. It is
// subscribed before the upgrade completes, so deliveries queue until
// Attach starts the writer.
type Session struct {
	id             string
	UserID         string
	ConversationID string

	connMu    sync.Mutex
	Conn      *websocket.Conn
	SendQueue chan []byte
	done      chan struct{}
	closed    atomic.Int32
	state     atomic.Int32
	limiter   *rate.Limiter
}

func NewSession(id, userID, conversationID string, framesPerSecond float64) *Session {
	limit := rate.Inf
	burst := 0
	if framesPerSecond > 0 {
		limit = rate.Limit(framesPerSecond)
		burst = max(1, int(framesPerSecond))
	}

	s := &Session{
		id:             id,
		UserID:         userID,
		ConversationID: conversationID,
		SendQueue:      make(chan []byte, SendQueueSize),
		done:           make(chan struct{}),
		limiter:        rate.NewLimiter(limit, burst),
	}
	s.state.Store(int32(StateAuthorized))
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Attach binds the upgraded connection and starts the writer.
// It reports false when the session was closed while still unattached.
func (s *Session) Attach(conn *websocket.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed.Load() == 1 {
		_ = conn.Close()
		return false
	}
	s.Conn = conn
	s.state.Store(int32(StateOpen))
	go s.writeLoop(conn)
	return true
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Deliver implements broadcast.Handle.
func (s *Session) Deliver(payload []byte) error {
	if !s.TrySend(payload) {
		return domain.ErrSessionClosed
	}
	return nil
}

// Allow reports whether another inbound frame fits the session's rate.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

func (s *Session) TrySend(msg []byte) bool {
	if s.closed.Load() == 1 {
		return false
	}
	select {
	case s.SendQueue <- msg:
		return true
	default:
		s.logger().Warn("session: backpressure overflow, dropping connection")
		s.CloseWithReason(websocket.CloseTryAgainLater, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseNormalClosure, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}
	s.state.Store(int32(StateClosed))
	close(s.done)

	s.connMu.Lock()
	conn := s.Conn
	s.connMu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = conn.Close()
	}
}

func (s *Session) logger() *zap.Logger {
	return observability.GetLogger(context.Background()).With(
		zap.String("session_id", s.id),
		zap.String("user_id", s.UserID),
		zap.String("conversation_id", s.ConversationID),
	)
}

func (s *Session) writeLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg := <-s.SendQueue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger().Debug("session: write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger().Debug("session: ping error", zap.Error(err))
				return
			}
		case <-s.done:
			return
		}
	}
}
