package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is the durable, append-only audit sink. Implementations must never
// update or delete existing events.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns the newest events first, at most limit rows.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	// ListByActor returns the newest events for one actor, at most limit rows.
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]Event, error)
}
