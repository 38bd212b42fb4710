package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/repository/memory"
	"github.com/SARVESHVARADKAR123/RealChat/internal/tx"
)

func newTestStore(t *testing.T) (*ConversationStore, *memory.Store) {
	t.Helper()
	repo := memory.New()
	return New(repo, tx.Nop{}), repo
}

func TestFindOrCreateConversation_OrderIndependent(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)

	c1, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	c2, err := s.FindOrCreateConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	c3, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, c1.ID, c3.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, c2.Participants)
	assert.Equal(t, 1, repo.ConversationCount())
}

func TestFindOrCreateConversation_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 0 {
				a, b = b, a
			}
			conv, err := s.FindOrCreateConversation(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, repo.ConversationCount())
}

func TestFindOrCreateConversation_SelfRejected(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.FindOrCreateConversation(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppendMessage(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)

	conv, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	t.Run("persists_and_touches_conversation", func(t *testing.T) {
		msg, err := s.AppendMessage(ctx, conv.ID, "alice", "  hello  ")
		require.NoError(t, err)
		assert.NotZero(t, msg.ID)
		assert.Equal(t, "hello", msg.Text)

		updated, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.False(t, updated.UpdatedAt.Before(msg.CreatedAt))

		outbox := repo.Outbox()
		require.Len(t, outbox, 1)
		assert.Equal(t, domain.EventTypeMessageSent, outbox[0].EventType)
		assert.Equal(t, conv.ID, outbox[0].AggregateID)
	})

	t.Run("rejects_empty_text", func(t *testing.T) {
		_, err := s.AppendMessage(ctx, conv.ID, "alice", "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	})

	t.Run("rejects_non_participant", func(t *testing.T) {
		_, err := s.AppendMessage(ctx, conv.ID, "mallory", "hi")
		assert.ErrorIs(t, err, domain.ErrNotParticipant)
	})

	t.Run("rejects_malformed_conversation_id", func(t *testing.T) {
		_, err := s.AppendMessage(ctx, "not-a-uuid", "alice", "hi")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestListMessages_Ordered(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		// Every other message shares a timestamp with its predecessor.
		return base.Add(time.Duration(tick/2) * time.Second)
	}
	s := New(repo, tx.Nop{}, WithClock(clock))

	conv, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		sender := "alice"
		if i%2 == 1 {
			sender = "bob"
		}
		_, err := s.AppendMessage(ctx, conv.ID, sender, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 6)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
		assert.True(t, msgs[i-1].Less(msgs[i]))
	}
	assert.Equal(t, "m0", msgs[0].Text)
	assert.Equal(t, "m5", msgs[5].Text)

	latest, err := s.LatestMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "m5", latest.Text)
}

func TestDrafts(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)

	conv, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	text, err := s.GetDraft(ctx, "alice", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, s.UpsertDraft(ctx, "alice", conv.ID, "hello"))
	require.NoError(t, s.UpsertDraft(ctx, "alice", conv.ID, " hello again "))
	assert.Equal(t, 1, repo.DraftCount())

	text, err = s.GetDraft(ctx, "alice", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello again", text)

	require.NoError(t, s.UpsertDraft(ctx, "alice", conv.ID, ""))
	text, err = s.GetDraft(ctx, "alice", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, 0, repo.DraftCount())

	// Clearing twice is a no-op.
	require.NoError(t, s.UpsertDraft(ctx, "alice", conv.ID, "  "))
	assert.Equal(t, 0, repo.DraftCount())
}

type fakeLatestCache struct {
	mu  sync.Mutex
	msg map[string]*domain.Message
}

func (f *fakeLatestCache) GetLatestMessage(ctx context.Context, convID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msg[convID], nil
}

func (f *fakeLatestCache) SetLatestMessage(ctx context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msg == nil {
		f.msg = make(map[string]*domain.Message)
	}
	if cur, ok := f.msg[msg.ConversationID]; ok && cur.ID >= msg.ID {
		return nil
	}
	f.msg[msg.ConversationID] = msg
	return nil
}

func TestActivityProjector(t *testing.T) {
	ctx := context.Background()
	cache := &fakeLatestCache{}
	p := NewActivityProjector(cache)

	msg := &domain.Message{ID: 7, ConversationID: "c1", SenderID: "alice", Text: "hi", CreatedAt: time.Now().UTC()}
	env, err := domain.NewMessageSentEnvelope(msg)
	require.NoError(t, err)

	p.Handle(ctx, []byte("not json"))
	p.Handle(ctx, env)

	got, err := cache.GetLatestMessage(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "hi", got.Text)
}

func TestLatestMessage_PrefersProjection(t *testing.T) {
	ctx := context.Background()
	cache := &fakeLatestCache{}
	s := New(memory.New(), tx.Nop{}, WithLatestCache(cache))

	projected := &domain.Message{ID: 99, ConversationID: "c1", Text: "projected"}
	require.NoError(t, cache.SetLatestMessage(ctx, projected))

	got, err := s.LatestMessage(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "projected", got.Text)

	got, err = s.LatestMessage(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestMessage_ProjectionLagsBehindAppend(t *testing.T) {
	ctx := context.Background()
	cache := &fakeLatestCache{}
	s := New(memory.New(), tx.Nop{}, WithLatestCache(cache))
	projector := NewActivityProjector(cache)

	conv, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	first, err := s.AppendMessage(ctx, conv.ID, "alice", "first")
	require.NoError(t, err)
	env, err := domain.NewMessageSentEnvelope(first)
	require.NoError(t, err)
	projector.Handle(ctx, env)

	// No projection for the second message yet.
	_, err = s.AppendMessage(ctx, conv.ID, "bob", "second")
	require.NoError(t, err)

	got, err := s.LatestMessage(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Text)

	// A late replay of the older event does not win.
	projector.Handle(ctx, env)
	got, err = s.LatestMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Text)
}
