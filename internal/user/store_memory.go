package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"caregate/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// InMemoryStore keeps users in a map guarded by a mutex. Used in tests and
// when no database is configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*User
	byEml map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[uuid.UUID]*User),
		byEml: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byEml[u.Email]; ok && existingID != u.ID {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}

	clone := *u
	clone.UpdatedAt = time.Now().UTC()
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = clone.UpdatedAt
	}
	s.byID[u.ID] = &clone
	s.byEml[u.Email] = u.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEml[email]
	if !ok {
		return nil, fmt.Errorf("user by email: %w", sentinel.ErrNotFound)
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.byEml, u.Email)
	delete(s.byID, id)
	return nil
}
