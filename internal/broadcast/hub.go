package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

type group struct {
	mu      sync.Mutex
	members map[string]Handle
}

// Hub is the in-process Registry. Lock order is hub before group.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]*group)}
}

func (h *Hub) Subscribe(ctx context.Context, groupID string, handle Handle) error {
	if groupID == "" || handle == nil {
		return domain.ErrInvalidInput
	}

	h.mu.Lock()
	g, ok := h.groups[groupID]
	if !ok {
		g = &group{members: make(map[string]Handle)}
		h.groups[groupID] = g
		observability.BroadcastGroupsActive.Inc()
	}
	g.mu.Lock()
	h.mu.Unlock()

	g.members[handle.ID()] = handle
	g.mu.Unlock()
	return nil
}

func (h *Hub) Unsubscribe(ctx context.Context, groupID string, handle Handle) error {
	if handle == nil {
		return nil
	}

	g := h.lookup(groupID)
	if g == nil {
		return nil
	}

	g.mu.Lock()
	delete(g.members, handle.ID())
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		h.collect(groupID)
	}
	return nil
}

func (h *Hub) Publish(ctx context.Context, groupID string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	h.Deliver(ctx, groupID, payload)
	return nil
}

// Deliver fans an encoded event out to every local member of groupID.
// The group lock is held for the whole pass so every member sees events
// in the same order.
func (h *Hub) Deliver(ctx context.Context, groupID string, payload []byte) {
	g := h.lookup(groupID)
	if g == nil {
		return
	}

	g.mu.Lock()
	var dropped int
	for id, member := range g.members {
		if err := member.Deliver(payload); err != nil {
			delete(g.members, id)
			dropped++
			observability.BroadcastDeliveriesTotal.WithLabelValues("dropped").Inc()
			observability.GetLogger(ctx).Debug("broadcast: dropping handle",
				zap.String("group_id", groupID),
				zap.String("handle_id", id),
				zap.Error(err))
			continue
		}
		observability.BroadcastDeliveriesTotal.WithLabelValues("delivered").Inc()
	}
	empty := len(g.members) == 0
	g.mu.Unlock()

	if dropped > 0 && empty {
		h.collect(groupID)
	}
}

// Members reports how many handles are subscribed locally to groupID.
func (h *Hub) Members(groupID string) int {
	g := h.lookup(groupID)
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Groups reports how many groups currently exist.
func (h *Hub) Groups() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

// CloseAll empties every group. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.groups {
		delete(h.groups, id)
		observability.BroadcastGroupsActive.Dec()
	}
}

func (h *Hub) lookup(groupID string) *group {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.groups[groupID]
}

// collect removes groupID if it is still empty once both locks are held.
func (h *Hub) collect(groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[groupID]
	if !ok {
		return
	}
	g.mu.Lock()
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		delete(h.groups, groupID)
		observability.BroadcastGroupsActive.Dec()
	}
}
