package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

type recordingHandle struct {
	id   string
	fail bool

	mu       sync.Mutex
	payloads [][]byte
}

func (h *recordingHandle) ID() string { return h.id }

func (h *recordingHandle) Deliver(payload []byte) error {
	if h.fail {
		return errors.New("connection gone")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, payload)
	return nil
}

func (h *recordingHandle) received() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.payloads...)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	err := hub.Publish(context.Background(), "room", domain.NewTypingEvent("alice", true))
	assert.NoError(t, err)
	assert.Equal(t, 0, hub.Groups())
}

func TestHub_FanOut(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	good1 := &recordingHandle{id: "a"}
	good2 := &recordingHandle{id: "b"}
	broken := &recordingHandle{id: "c", fail: true}
	other := &recordingHandle{id: "d"}

	for _, h := range []Handle{good1, good2, broken} {
		require.NoError(t, hub.Subscribe(ctx, "room", h))
	}
	require.NoError(t, hub.Subscribe(ctx, "elsewhere", other))

	err := hub.Publish(ctx, "room", domain.NewTypingEvent("alice", true))
	require.NoError(t, err)

	for _, h := range []*recordingHandle{good1, good2} {
		got := h.received()
		require.Len(t, got, 1)
		assert.JSONEq(t, `{"kind":"typing","sender":"alice","typing":true}`, string(got[0]))
	}
	assert.Empty(t, other.received())
	assert.Equal(t, 2, hub.Members("room"), "failed handle is dropped")
}

func TestHub_SubscribeIdempotent(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	h := &recordingHandle{id: "a"}

	require.NoError(t, hub.Subscribe(ctx, "room", h))
	require.NoError(t, hub.Subscribe(ctx, "room", h))
	assert.Equal(t, 1, hub.Members("room"))

	require.NoError(t, hub.Publish(ctx, "room", domain.NewTypingEvent("bob", false)))
	assert.Len(t, h.received(), 1)

	require.NoError(t, hub.Unsubscribe(ctx, "room", h))
	require.NoError(t, hub.Unsubscribe(ctx, "room", h))
	require.NoError(t, hub.Unsubscribe(ctx, "never", h))
	assert.Equal(t, 0, hub.Groups(), "empty group is collected")
}

func TestHub_GroupCollectedAfterLastHandleFails(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	require.NoError(t, hub.Subscribe(ctx, "room", &recordingHandle{id: "x", fail: true}))

	require.NoError(t, hub.Publish(ctx, "room", domain.NewTypingEvent("alice", true)))
	assert.Equal(t, 0, hub.Groups())
}

func TestHub_SubscribeRejectsInvalid(t *testing.T) {
	hub := NewHub()
	assert.ErrorIs(t, hub.Subscribe(context.Background(), "", &recordingHandle{id: "a"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, hub.Subscribe(context.Background(), "room", nil), domain.ErrInvalidInput)
}

func TestHub_OrderPreserved(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	h1 := &recordingHandle{id: "a"}
	h2 := &recordingHandle{id: "b"}
	require.NoError(t, hub.Subscribe(ctx, "room", h1))
	require.NoError(t, hub.Subscribe(ctx, "room", h2))

	texts := []string{"one", "two", "three"}
	for _, text := range texts {
		ev := domain.Event{Kind: domain.EventMessage, Sender: "alice", Text: text, Timestamp: "1:00 PM"}
		require.NoError(t, hub.Publish(ctx, "room", ev))
	}

	for _, h := range []*recordingHandle{h1, h2} {
		got := h.received()
		require.Len(t, got, len(texts))
		for i, raw := range got {
			var ev domain.Event
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, texts[i], ev.Text)
		}
	}
}

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		h := &recordingHandle{id: string(rune('A' + i))}
		go func() {
			defer wg.Done()
			_ = hub.Subscribe(ctx, "room", h)
			_ = hub.Unsubscribe(ctx, "room", h)
		}()
		go func() {
			defer wg.Done()
			_ = hub.Publish(ctx, "room", domain.NewTypingEvent("x", true))
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Groups())
}
