package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"caregate/internal/platform/config"
	"caregate/internal/platform/privacy"
	"caregate/internal/platform/tracer"

	"github.com/google/uuid"
)

// Recorder is the single entry point for recording audit events. In sync
// mode the event is durable before Record returns; in async mode it is
// queued for a background worker and the queue is drained on shutdown.
//
// Details are PHI-sanitized before they reach the store in either mode.
type Recorder struct {
	store   Store
	mode    config.AuditMode
	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics MetricsSink

	queue chan Event
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
}

// MetricsSink is the subset of metrics the recorder reports. Tests pass a
// counting fake.
type MetricsSink interface {
	AuditRecorded(outcome string)
	AuditDropped()
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithMode selects sync or async recording. Defaults to sync.
func WithMode(mode config.AuditMode) RecorderOption {
	return func(r *Recorder) {
		r.mode = mode
	}
}

// WithQueueLength sets the async queue capacity.
func WithQueueLength(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan Event, n)
		}
	}
}

// WithRecorderLogger sets the logger.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRecorderTracer sets the tracer.
func WithRecorderTracer(t tracer.Tracer) RecorderOption {
	return func(r *Recorder) {
		r.tracer = t
	}
}

// WithRecorderMetrics sets the metrics sink.
func WithRecorderMetrics(m MetricsSink) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		mode:    config.AuditModeSync,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
		queue:   make(chan Event, 1024),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one audit event. Missing ID and Timestamp are filled in.
// In sync mode a store failure is returned to the caller so the handler can
// fail the request; in async mode Record only fails when the queue is full.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Details = privacy.SanitizeMap(event.Details)

	if r.mode == config.AuditModeSync {
		return r.append(ctx, event)
	}

	select {
	case r.queue <- event:
		return nil
	default:
		r.logger.Error("audit queue full, event rejected",
			"action", event.Action,
			"event_id", event.ID,
		)
		if r.metrics != nil {
			r.metrics.AuditDropped()
		}
		return fmt.Errorf("audit queue full")
	}
}

func (r *Recorder) append(ctx context.Context, event Event) error {
	ctx, span := r.tracer.Start(ctx, tracer.SpanAuditAppend,
		tracer.String(tracer.AttrAuditAction, event.Action),
		tracer.String(tracer.AttrAuditMode, string(r.mode)),
	)

	err := r.store.Append(ctx, event)
	span.End(err)

	if err != nil {
		r.logger.Error("failed to append audit event",
			"action", event.Action,
			"event_id", event.ID,
			"error", err,
		)
		return fmt.Errorf("append audit event: %w", err)
	}
	if r.metrics != nil {
		r.metrics.AuditRecorded(string(event.Outcome))
	}
	return nil
}

// Start launches the background worker. No-op in sync mode; safe to call
// more than once.
func (r *Recorder) Start() {
	if r.mode != config.AuditModeAsync {
		return
	}
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.run()
	})
}

const (
	asyncAppendTimeout  = 5 * time.Second
	asyncAppendAttempts = 3
	asyncRetryBackoff   = 250 * time.Millisecond
)

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.queue:
			r.appendAsync(event)
		case <-r.stopped:
			r.drain()
			return
		}
	}
}

// appendAsync retries transient store failures. Each attempt gets its own
// deadline so a slow store cannot wedge the drain path.
func (r *Recorder) appendAsync(event Event) {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), asyncAppendTimeout)
		err := r.append(ctx, event)
		cancel()
		if err == nil {
			return
		}
		if attempt >= asyncAppendAttempts {
			r.logger.Error("giving up on audit event after retries",
				"event_id", event.ID,
				"attempts", attempt,
			)
			if r.metrics != nil {
				r.metrics.AuditDropped()
			}
			return
		}
		time.Sleep(asyncRetryBackoff)
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case event := <-r.queue:
			r.appendAsync(event)
		default:
			return
		}
	}
}

// Stop flushes queued events and stops the worker.
func (r *Recorder) Stop(ctx context.Context) error {
	if r.mode != config.AuditModeAsync {
		return nil
	}
	r.stopOnce.Do(func() {
		close(r.stopped)
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
