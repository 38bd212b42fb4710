package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

func TestInbox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	dave := domain.Profile{ID: uuid.NewString(), UserID: "u-dave", Username: "dave"}
	f.repo.AddProfile(dave)

	f.repo.Connect(f.alice.ID, f.bob.ID, "accepted")
	f.repo.Connect(f.carol.ID, f.alice.ID, "accepted")
	f.repo.Connect(f.alice.ID, dave.ID, "pending")

	_, err := f.svc.SendMessage(ctx, SendMessageCommand{UserID: "u-bob", ConversationID: f.conv.ID, Text: "older"})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	carolConv, err := f.convs.FindOrCreateConversation(ctx, f.carol.ID, f.alice.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.SendMessage(ctx, SendMessageCommand{UserID: "u-carol", ConversationID: carolConv.ID, Text: "newer"})
	require.NoError(t, err)

	require.NoError(t, f.presence.Set(ctx, f.bob.ID, true, f.clock.Now()))
	require.NoError(t, f.svc.SaveDraft(ctx, "u-alice", f.conv.ID, "reply later"))

	t.Run("sorted_by_latest_activity", func(t *testing.T) {
		inbox, err := f.svc.Inbox(ctx, "u-alice", "")
		require.NoError(t, err)

		require.Len(t, inbox.Threads, 2, "pending connections are excluded")
		assert.Equal(t, carolConv.ID, inbox.Threads[0].Conversation.ID)
		assert.Equal(t, f.conv.ID, inbox.Threads[1].Conversation.ID)
		assert.Equal(t, "newer", inbox.Threads[0].LastMessage.Text)
		assert.True(t, inbox.Threads[1].OtherOnline)
		assert.False(t, inbox.Threads[0].OtherOnline)

		require.NotNil(t, inbox.Active)
		assert.Equal(t, carolConv.ID, inbox.Active.Conversation.ID, "first thread is active by default")
		assert.Equal(t, f.carol.ID, inbox.Active.Other.ID)
		require.Len(t, inbox.Active.Messages, 1)
		assert.Empty(t, inbox.Active.Draft)
	})

	t.Run("requested_thread_is_active", func(t *testing.T) {
		inbox, err := f.svc.Inbox(ctx, "u-alice", f.conv.ID)
		require.NoError(t, err)
		require.NotNil(t, inbox.Active)
		assert.Equal(t, f.conv.ID, inbox.Active.Conversation.ID)
		assert.Equal(t, "reply later", inbox.Active.Draft)
		assert.Equal(t, "older", inbox.Active.Messages[0].Text)
	})

	t.Run("unknown_request_falls_back", func(t *testing.T) {
		inbox, err := f.svc.Inbox(ctx, "u-alice", uuid.NewString())
		require.NoError(t, err)
		assert.Equal(t, carolConv.ID, inbox.Active.Conversation.ID)
	})

	t.Run("no_connections", func(t *testing.T) {
		inbox, err := f.svc.Inbox(ctx, "u-dave", "")
		require.NoError(t, err)
		assert.Empty(t, inbox.Threads)
		assert.Nil(t, inbox.Active)
	})

	t.Run("creates_missing_conversation", func(t *testing.T) {
		before := f.repo.ConversationCount()
		f.repo.Connect(f.bob.ID, f.carol.ID, "accepted")

		inbox, err := f.svc.Inbox(ctx, "u-bob", "")
		require.NoError(t, err)
		assert.Len(t, inbox.Threads, 2)
		assert.Equal(t, before+1, f.repo.ConversationCount())
	})
}
