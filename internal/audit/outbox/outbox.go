// Package outbox implements the transactional outbox for audit events.
// Producers write entries in the same transaction as the audit row; a
// background worker publishes them to Kafka with at-least-once delivery.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one pending or processed outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// Store is the outbox persistence contract used by the worker.
type Store interface {
	// FetchUnprocessed returns up to limit unpublished entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)
	// MarkProcessed records that an entry was published.
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	// CountPending returns the number of unpublished entries.
	CountPending(ctx context.Context) (int64, error)
	// DeleteProcessedBefore removes old published entries.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
