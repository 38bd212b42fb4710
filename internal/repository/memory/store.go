// Package memory is an in-process Repository and Directory used by tests and
// the STORE_DRIVER=memory development mode.
package memory

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

type OutboxEvent struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type connection struct {
	requester string
	receiver  string
	status    string
}

type Store struct {
	mu sync.RWMutex

	conversations map[string]*domain.Conversation
	byLookupKey   map[string]string
	messages      map[string][]*domain.Message
	drafts        map[string]*domain.Draft
	outbox        []OutboxEvent
	nextMessageID int64

	profiles    map[string]*domain.Profile
	connections []connection
}

func New() *Store {
	return &Store{
		conversations: make(map[string]*domain.Conversation),
		byLookupKey:   make(map[string]string),
		messages:      make(map[string][]*domain.Message),
		drafts:        make(map[string]*domain.Draft),
		profiles:      make(map[string]*domain.Profile),
	}
}

// AddProfile registers a profile as the profile service would.
func (s *Store) AddProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = &p
}

// Connect records a connection between two profiles with the given status.
func (s *Store) Connect(requesterID, receiverID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = append(s.connections, connection{requester: requesterID, receiver: receiverID, status: status})
}

func (s *Store) Outbox() []OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.outbox)
}

func (s *Store) DraftCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

func (s *Store) ConversationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func draftKey(profileID, convID string) string { return profileID + "|" + convID }

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	cp := *c
	cp.Participants = slices.Clone(c.Participants)
	return &cp
}

func (s *Store) GetConversation(ctx context.Context, tx *sql.Tx, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return cloneConversation(c), nil
}

func (s *Store) GetConversationByLookupKey(ctx context.Context, tx *sql.Tx, key string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLookupKey[key]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return cloneConversation(s.conversations[id]), nil
}

func (s *Store) InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byLookupKey[conv.LookupKey]; taken {
		return false, nil
	}
	s.conversations[conv.ID] = cloneConversation(conv)
	s.byLookupKey[conv.LookupKey] = conv.ID
	return true, nil
}

func (s *Store) InsertParticipant(ctx context.Context, tx *sql.Tx, convID, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[convID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	if !c.HasParticipant(profileID) {
		c.Participants = append(c.Participants, profileID)
	}
	return nil
}

func (s *Store) TouchConversation(ctx context.Context, tx *sql.Tx, convID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[convID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	if at.After(c.UpdatedAt) {
		c.UpdatedAt = at
	}
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return domain.ErrConversationNotFound
	}
	s.nextMessageID++
	msg.ID = s.nextMessageID
	stored := *msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &stored)
	return nil
}

func (s *Store) FetchMessages(ctx context.Context, convID string) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Message, 0, len(s.messages[convID]))
	for _, m := range s.messages[convID] {
		cp := *m
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *domain.Message) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (s *Store) LatestMessage(ctx context.Context, convID string) (*domain.Message, error) {
	msgs, err := s.FetchMessages(ctx, convID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}

func (s *Store) UpsertDraft(ctx context.Context, tx *sql.Tx, d *domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := draftKey(d.ProfileID, d.ConversationID)
	if existing, ok := s.drafts[key]; ok && existing.Text == d.Text {
		return nil
	}
	cp := *d
	s.drafts[key] = &cp
	return nil
}

func (s *Store) DeleteDraft(ctx context.Context, tx *sql.Tx, profileID, convID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftKey(profileID, convID))
	return nil
}

func (s *Store) GetDraft(ctx context.Context, profileID, convID string) (*domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[draftKey(profileID, convID)]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) InsertOutbox(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       slices.Clone(payload),
	})
	return nil
}

func (s *Store) GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (s *Store) ListConnectedProfiles(ctx context.Context, profileID string) ([]*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Profile
	for _, c := range s.connections {
		if c.status != "accepted" {
			continue
		}
		var other string
		switch profileID {
		case c.requester:
			other = c.receiver
		case c.receiver:
			other = c.requester
		default:
			continue
		}
		if p, ok := s.profiles[other]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
