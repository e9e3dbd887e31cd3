package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"caregate/internal/audit/outbox"
	"caregate/internal/platform/kafka/producer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory outbox for worker tests.
type fakeStore struct {
	mu      sync.Mutex
	entries []*outbox.Entry
}

func (s *fakeStore) add(eventType string, payload []byte) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.entries = append(s.entries, &outbox.Entry{
		ID:            id,
		AggregateType: "user",
		AggregateID:   uuid.NewString(),
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now(),
	})
	return id
}

func (s *fakeStore) FetchUnprocessed(_ context.Context, limit int) ([]*outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range s.entries {
		if e.ProcessedAt == nil {
			out = append(out, e)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) MarkProcessed(_ context.Context, id uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id && e.ProcessedAt == nil {
			t := processedAt
			e.ProcessedAt = &t
			return nil
		}
	}
	return errors.New("not found")
}

func (s *fakeStore) CountPending(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.entries {
		if e.ProcessedAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []*producer.Message
	failNext int
}

func (p *fakePublisher) Produce(_ context.Context, msg *producer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext > 0 {
		p.failNext--
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) published() []*producer.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*producer.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPublishesAndMarksProcessed(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}

	payload, err := json.Marshal(map[string]string{"action": "secure_accessed"})
	require.NoError(t, err)
	store.add("secure_accessed", payload)
	store.add("userinfo_accessed", payload)

	w := New(store, pub,
		WithTopic("caregate.audit.events"),
		WithPollInterval(10*time.Millisecond),
	)
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	waitFor(t, func() bool {
		n, _ := store.CountPending(context.Background())
		return n == 0
	})

	msgs := pub.published()
	require.Len(t, msgs, 2)
	assert.Equal(t, "caregate.audit.events", msgs[0].Topic)
	assert.Equal(t, "secure_accessed", msgs[0].Headers["event_type"])
	assert.Equal(t, "user", msgs[0].Headers["aggregate_type"])
	assert.Equal(t, payload, []byte(msgs[0].Value))
}

func TestWorkerRetriesFailedPublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{failNext: 2}
	store.add("audit_log_accessed", []byte(`{}`))

	w := New(store, pub, WithPollInterval(10*time.Millisecond))
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	waitFor(t, func() bool {
		n, _ := store.CountPending(context.Background())
		return n == 0
	})

	require.Len(t, pub.published(), 1)
}

func TestWorkerDrainsOnStop(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}

	// Long poll interval so entries added after Start are only picked up by
	// the shutdown drain.
	w := New(store, pub, WithPollInterval(time.Hour))
	w.Start()

	for i := 0; i < 3; i++ {
		store.add("hello_accessed", []byte(`{}`))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	n, err := store.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, pub.published(), 3)
}
