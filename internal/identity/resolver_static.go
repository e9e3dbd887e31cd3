package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StaticResolver synthesizes an identity from the subject without a store
// lookup. Development and test use only; selected by configuration.
type StaticResolver struct{}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{}
}

func (r *StaticResolver) Resolve(_ context.Context, subject uuid.UUID) (*Identity, error) {
	return &Identity{
		ID:    subject,
		Email: fmt.Sprintf("user-%s@example.com", shortID(subject)),
		Role:  "user",
	}, nil
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}
