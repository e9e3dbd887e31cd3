package user

import (
	"context"
	"testing"
	"time"

	"caregate/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser() *User {
	return &User{
		ID:       uuid.New(),
		Email:    "clinician@example.com",
		Role:     "user",
		IsActive: true,
	}
}

func TestInMemoryStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	u := newTestUser()

	require.NoError(t, store.Save(ctx, u))

	byID, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
	assert.False(t, byID.CreatedAt.IsZero())

	byEmail, err := store.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestInMemoryStore_FindByID_NotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_Save_DuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	first := newTestUser()
	require.NoError(t, store.Save(ctx, first))

	second := newTestUser()
	second.ID = uuid.New()

	err := store.Save(ctx, second)
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryStore_Save_UpdatesExisting(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	u := newTestUser()
	require.NoError(t, store.Save(ctx, u))

	now := time.Now().UTC()
	u.LastLogin = &now
	u.IsActive = false
	require.NoError(t, store.Save(ctx, u))

	got, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.LastLogin)
}

func TestInMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	u := newTestUser()
	require.NoError(t, store.Save(ctx, u))

	require.NoError(t, store.Delete(ctx, u.ID))

	_, err := store.FindByID(ctx, u.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, u.ID), sentinel.ErrNotFound)
}

func TestInMemoryStore_FindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	u := newTestUser()
	require.NoError(t, store.Save(ctx, u))

	got, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Email = "mutated@example.com"

	again, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "clinician@example.com", again.Email)
}
