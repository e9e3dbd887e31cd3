package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Append(ctx, Event{
			ID:        uuid.New(),
			Action:    ActionHelloAccessed,
			Outcome:   OutcomeSuccess,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			RequestID: string(rune('a' + i)),
		})
		require.NoError(t, err)
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].RequestID)
	assert.Equal(t, "b", events[1].RequestID)
}

func TestInMemoryStoreListByActor(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	require.NoError(t, store.Append(ctx, Event{ID: uuid.New(), ActorID: &alice, Action: ActionSecureAccessed}))
	require.NoError(t, store.Append(ctx, Event{ID: uuid.New(), ActorID: &bob, Action: ActionSecureAccessed}))
	require.NoError(t, store.Append(ctx, Event{ID: uuid.New(), Action: ActionAuthFailed}))

	events, err := store.ListByActor(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, &alice, events[0].ActorID)
}

func TestInMemoryStoreLimitZero(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append(context.Background(), Event{ID: uuid.New()}))

	events, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
