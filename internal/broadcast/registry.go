package broadcast

import (
	"context"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

// Handle is one live connection that can receive encoded events.
type Handle interface {
	ID() string
	// Deliver must not block; an error marks the handle as gone.
	Deliver(payload []byte) error
}

// Registry maps a conversation's group id to the live handles subscribed to it.
//
// Subscribe and Unsubscribe are idempotent. Publish is best-effort per
// handle: failures drop that handle and never reach the caller. Publish
// only returns an error, wrapping domain.ErrTransientDelivery, when the
// event could not be handed to the underlying bus at all.
type Registry interface {
	Subscribe(ctx context.Context, groupID string, h Handle) error
	Unsubscribe(ctx context.Context, groupID string, h Handle) error
	Publish(ctx context.Context, groupID string, event domain.Event) error
}
