// Package identity resolves verified token subjects to caller identities.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the resolved caller derived from a valid credential. It is
// constructed per request and never persisted.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// Resolver turns a token subject into an Identity. Implementations must
// return identity_not_found (pkg/domain-errors) when the subject does not
// exist or is deactivated.
type Resolver interface {
	Resolve(ctx context.Context, subject uuid.UUID) (*Identity, error)
}
