package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps events in an append-only slice. Used in tests and when
// no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(limit, nil), nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID uuid.UUID, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(limit, &actorID), nil
}

// newestFirst walks the slice backwards; caller must hold the read lock.
func (s *InMemoryStore) newestFirst(limit int, actorID *uuid.UUID) []Event {
	if limit <= 0 {
		return nil
	}
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.events[i]
		if actorID != nil && (e.ActorID == nil || *e.ActorID != *actorID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len reports the number of stored events. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
