package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
	"github.com/SARVESHVARADKAR123/RealChat/internal/presence"
)

type Thread struct {
	Conversation *domain.Conversation `json:"conversation"`
	Other        *domain.Profile      `json:"other"`
	OtherOnline  bool                 `json:"other_online"`
	LastMessage  *domain.Message      `json:"last_message,omitempty"`
	LastActivity time.Time            `json:"last_activity"`
}

type ActiveThread struct {
	*Thread
	Messages []*domain.Message `json:"messages"`
	Draft    string            `json:"draft"`
}

type Inbox struct {
	Me      *domain.Profile `json:"me"`
	Threads []*Thread       `json:"threads"`
	Active  *ActiveThread   `json:"active,omitempty"`
}

// Inbox assembles one thread per accepted connection, newest activity
// first. activeID selects the open thread when it is one of them;
// otherwise the first thread is open.
func (s *Service) Inbox(ctx context.Context, userID, activeID string) (*Inbox, error) {
	me, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	peers, err := s.directory.ListConnectedProfiles(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	records := s.presenceFor(ctx, lo.Map(peers, func(p *domain.Profile, _ int) string { return p.ID }))
	now := s.now()

	threads := make([]*Thread, 0, len(peers))
	for _, peer := range peers {
		conv, err := s.conversations.FindOrCreateConversation(ctx, me.ID, peer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to open conversation with %s: %w", peer.ID, err)
		}

		latest, err := s.conversations.LatestMessage(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest message: %w", err)
		}

		t := &Thread{
			Conversation: conv,
			Other:        peer,
			OtherOnline:  records[peer.ID].Online(now, s.ttl),
			LastMessage:  latest,
			LastActivity: conv.UpdatedAt,
		}
		if latest != nil {
			t.LastActivity = latest.CreatedAt
		}
		threads = append(threads, t)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastActivity.After(threads[j].LastActivity)
	})

	inbox := &Inbox{Me: me, Threads: threads}
	if len(threads) == 0 {
		return inbox, nil
	}

	active, found := lo.Find(threads, func(t *Thread) bool {
		return activeID != "" && t.Conversation.ID == activeID
	})
	if !found {
		active = threads[0]
	}

	messages, err := s.conversations.ListMessages(ctx, active.Conversation.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	draft, err := s.conversations.GetDraft(ctx, me.ID, active.Conversation.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	inbox.Active = &ActiveThread{Thread: active, Messages: messages, Draft: draft}
	return inbox, nil
}

// presenceFor degrades to everyone offline when the presence store is unreachable.
func (s *Service) presenceFor(ctx context.Context, ids []string) map[string]*presence.Record {
	if len(ids) == 0 {
		return nil
	}
	records, err := s.presence.GetMany(ctx, ids)
	if err != nil {
		observability.GetLogger(ctx).Warn("presence lookup failed", zap.Error(err))
		return nil
	}
	return records
}
