package user

import (
	"context"

	"github.com/google/uuid"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring callers.
type Store interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
