package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caregate/pkg/platform/sentinel"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedDemoUser ensures a development account exists so tokengen output
// resolves against the store. No-op if the email is already registered.
func SeedDemoUser(ctx context.Context, store Store, email, password string) (*User, error) {
	existing, err := store.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("check demo user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	u := &User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: string(hashed),
		Role:           "user",
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := store.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("seed demo user: %w", err)
	}
	return u, nil
}

// VerifyPassword compares a candidate password against the stored hash.
func VerifyPassword(u *User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(candidate)) == nil
}
