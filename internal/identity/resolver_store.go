package identity

import (
	"context"
	"errors"

	"caregate/internal/user"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// StoreResolver looks subjects up in the user store.
type StoreResolver struct {
	users user.Store
}

func NewStoreResolver(users user.Store) *StoreResolver {
	return &StoreResolver{users: users}
}

func (r *StoreResolver) Resolve(ctx context.Context, subject uuid.UUID) (*Identity, error) {
	u, err := r.users.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeIdentityNotFound, "subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve identity")
	}
	if !u.IsActive {
		return nil, dErrors.New(dErrors.CodeIdentityNotFound, "subject deactivated")
	}
	return &Identity{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}
