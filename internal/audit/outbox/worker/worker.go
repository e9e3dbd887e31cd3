package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"caregate/internal/audit/outbox"
	"caregate/internal/platform/kafka/producer"
	"caregate/internal/platform/metrics"
)

// Publisher is the transport the worker publishes entries to. Satisfied by
// the Kafka producer; tests substitute a fake.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox table and publishes events to Kafka.
type Worker struct {
	store        outbox.Store
	publisher    Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the Worker.
type Option func(*Worker)

// WithTopic sets the Kafka topic for publishing.
func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

// WithBatchSize sets the maximum number of entries to fetch per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		w.batchSize = size
	}
}

// WithPollInterval sets the interval between polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		w.pollInterval = interval
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New creates a new outbox worker.
func New(store outbox.Store, pub Publisher, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		store:        store,
		publisher:    pub,
		topic:        "caregate.audit.events",
		batchSize:    100,
		pollInterval: 100 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			w.poll(w.ctx)
		}
	}
}

// poll fetches and processes a batch of outbox entries.
func (w *Worker) poll(ctx context.Context) {
	entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
	if err != nil {
		if w.logger != nil {
			w.logger.Error("failed to fetch outbox entries", "error", err)
		}
		if w.metrics != nil {
			w.metrics.OutboxFailuresTotal.Inc()
		}
		return
	}

	for _, entry := range entries {
		if err := w.publishEntry(ctx, entry); err != nil {
			if w.logger != nil {
				w.logger.Error("failed to publish outbox entry",
					"id", entry.ID,
					"event_type", entry.EventType,
					"error", err,
				)
			}
			if w.metrics != nil {
				w.metrics.OutboxFailuresTotal.Inc()
			}
			// Entry stays unprocessed and is retried on the next poll.
			continue
		}

		if err := w.store.MarkProcessed(ctx, entry.ID, time.Now()); err != nil {
			if w.logger != nil {
				w.logger.Error("failed to mark entry as processed",
					"id", entry.ID,
					"error", err,
				)
			}
			// Published but not marked: re-published next poll, consumers
			// dedupe on event id.
			continue
		}

		if w.metrics != nil {
			w.metrics.OutboxPublishedTotal.Inc()
		}
	}
}

func (w *Worker) publishEntry(ctx context.Context, entry *outbox.Entry) error {
	msg := &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.ID.String()),
		Value: entry.Payload,
		Headers: map[string]string{
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
			"event_type":     entry.EventType,
		},
	}
	return w.publisher.Produce(ctx, msg)
}

// drain publishes remaining entries during shutdown.
func (w *Worker) drain() {
	if w.logger != nil {
		w.logger.Info("draining outbox worker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
		if err != nil || len(entries) == 0 {
			return
		}

		progressed := false
		for _, entry := range entries {
			if err := w.publishEntry(ctx, entry); err != nil {
				continue
			}
			if err := w.store.MarkProcessed(ctx, entry.ID, time.Now()); err == nil {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// Stop gracefully stops the worker, draining pending entries.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
