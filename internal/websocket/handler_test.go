package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/RealChat/internal/application"
	"github.com/SARVESHVARADKAR123/RealChat/internal/broadcast"
	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/handler"
	"github.com/SARVESHVARADKAR123/RealChat/internal/middleware"
	"github.com/SARVESHVARADKAR123/RealChat/internal/presence"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository/memory"
	"github.com/SARVESHVARADKAR123/RealChat/internal/store"
	"github.com/SARVESHVARADKAR123/RealChat/internal/tx"
)

// tokenAuth treats the token as the user id.
type tokenAuth struct{}

func (tokenAuth) Authenticate(r *http.Request) (string, error) {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	return "", domain.ErrUnauthenticated
}

type MockMessaging struct {
	mock.Mock
}

func (m *MockMessaging) Authorize(ctx context.Context, userID, convID string) (*domain.Profile, *domain.Conversation, error) {
	args := m.Called(ctx, userID, convID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Profile), args.Get(1).(*domain.Conversation), args.Error(2)
}

func (m *MockMessaging) SendMessage(ctx context.Context, cmd application.SendMessageCommand) (*domain.Message, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessaging) SendTyping(ctx context.Context, userID, convID string, typing bool) error {
	return m.Called(ctx, userID, convID, typing).Error(0)
}

type gateway struct {
	server *httptest.Server
	hub    *broadcast.Hub
	conv   *domain.Conversation
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	repo.AddProfile(domain.Profile{ID: uuid.NewString(), UserID: "alice", Username: "alice", DisplayName: "Alice"})
	repo.AddProfile(domain.Profile{ID: uuid.NewString(), UserID: "bob", Username: "bob"})
	repo.AddProfile(domain.Profile{ID: uuid.NewString(), UserID: "carol", Username: "carol"})

	alice, err := repo.GetProfileByUserID(ctx, "alice")
	require.NoError(t, err)
	bob, err := repo.GetProfileByUserID(ctx, "bob")
	require.NoError(t, err)

	convs := store.New(repo, tx.Nop{})
	conv, err := convs.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	hub := broadcast.NewHub()
	svc := application.New(convs, repo, presence.NewMemoryStore(), hub, application.Options{})

	r := chi.NewRouter()
	r.Handle("/ws/chat/{conversationID}", NewHandler(tokenAuth{}, svc, hub, Options{ServiceName: "test"}))
	r.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := tokenAuth{}.Authenticate(r)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(middleware.InjectUserID(r.Context(), userID)))
		})
	}).Post("/api/messages", handler.NewMessagingHandler(svc).SendMessage)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &gateway{server: srv, hub: hub, conv: conv}
}

func (g *gateway) url(convID, token string) string {
	u := "ws" + strings.TrimPrefix(g.server.URL, "http") + "/ws/chat/" + convID
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, mt)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestGateway_RefusesWithoutUpgrade(t *testing.T) {
	g := newGateway(t)

	tests := []struct {
		name       string
		convID     string
		token      string
		wantStatus int
	}{
		{name: "anonymous", convID: g.conv.ID, wantStatus: http.StatusUnauthorized},
		{name: "non_participant", convID: g.conv.ID, token: "carol", wantStatus: http.StatusForbidden},
		{name: "unknown_conversation", convID: uuid.NewString(), token: "alice", wantStatus: http.StatusNotFound},
		{name: "malformed_conversation", convID: "nope", token: "alice", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(g.url(tt.convID, tt.token), nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, 0, g.hub.Groups())
		})
	}
}

func TestGateway_AnonymousNeverTouchesStore(t *testing.T) {
	svc := new(MockMessaging)
	r := chi.NewRouter()
	r.Handle("/ws/chat/{conversationID}", NewHandler(tokenAuth{}, svc, broadcast.NewHub(), Options{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/chat/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything)
}

func TestGateway_Conversation(t *testing.T) {
	g := newGateway(t)
	alice := dial(t, g.url(g.conv.ID, "alice"))
	bob := dial(t, g.url(g.conv.ID, "bob"))
	require.Equal(t, 2, g.hub.Members(g.conv.ID))

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"message":"  hello bob  "}`)))
	for _, conn := range []*websocket.Conn{alice, bob} {
		ev := readEvent(t, conn)
		assert.Equal(t, "message", ev["kind"])
		assert.Equal(t, "Alice", ev["sender"])
		assert.Equal(t, "hello bob", ev["text"])
		assert.Regexp(t, `^\d{1,2}:\d{2} (AM|PM)$`, ev["timestamp"])
	}

	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(`{"typing":"yes"}`)))
	ev := readEvent(t, alice)
	assert.Equal(t, map[string]any{"kind": "typing", "sender": "bob", "typing": true}, ev)

	// Ignored frames produce nothing; the next valid frame still arrives in order.
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(`{"message":"   "}`)))
	require.NoError(t, bob.WriteMessage(websocket.BinaryMessage, []byte{0x01}))
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(`{"typing":"maybe"}`)))
	ev = readEvent(t, alice)
	assert.Equal(t, "typing", ev["kind"])
	assert.Equal(t, false, ev["typing"])
}

func TestGateway_HTTPSendReachesLiveChannelOnce(t *testing.T) {
	g := newGateway(t)
	alice := dial(t, g.url(g.conv.ID, "alice"))
	require.Equal(t, 1, g.hub.Members(g.conv.ID))

	body := strings.NewReader(`{"conversation_id":"` + g.conv.ID + `","text":"hi"}`)
	req, err := http.NewRequest(http.MethodPost, g.server.URL+"/api/messages?token=bob", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ev := readEvent(t, alice)
	assert.Equal(t, "message", ev["kind"])
	assert.Equal(t, "bob", ev["sender"])
	assert.Equal(t, "hi", ev["text"])

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = alice.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr, "no second delivery")
	assert.True(t, netErr.Timeout())
}

func TestGateway_DisconnectUnsubscribes(t *testing.T) {
	g := newGateway(t)
	alice := dial(t, g.url(g.conv.ID, "alice"))
	require.Equal(t, 1, g.hub.Members(g.conv.ID))

	require.NoError(t, alice.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	_ = alice.Close()

	assert.Eventually(t, func() bool { return g.hub.Groups() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_SendFailuresAreSilent(t *testing.T) {
	convID := uuid.NewString()
	profile := &domain.Profile{ID: uuid.NewString(), UserID: "alice"}
	conv := &domain.Conversation{ID: convID, Participants: []string{profile.ID}}

	svc := new(MockMessaging)
	svc.On("Authorize", mock.Anything, "alice", convID).Return(profile, conv, nil)
	svc.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("store down")).Once()
	typed := make(chan struct{})
	svc.On("SendTyping", mock.Anything, "alice", convID, true).Return(nil).Once().
		Run(func(mock.Arguments) { close(typed) })

	r := chi.NewRouter()
	r.Handle("/ws/chat/{conversationID}", NewHandler(tokenAuth{}, svc, broadcast.NewHub(), Options{}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat/"+convID+"?token=alice")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"typing":true}`)))

	select {
	case <-typed:
	case <-time.After(2 * time.Second):
		t.Fatal("channel should stay open after a failed send")
	}
	svc.AssertExpectations(t)
}
