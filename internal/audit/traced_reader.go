package audit

import (
	"context"

	"caregate/internal/platform/tracer"

	"github.com/google/uuid"
)

// TracedReader decorates the listing side of a Store with spans.
type TracedReader struct {
	store  Store
	tracer tracer.Tracer
}

func NewTracedReader(store Store, t tracer.Tracer) *TracedReader {
	return &TracedReader{store: store, tracer: t}
}

func (r *TracedReader) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanAuditList,
		tracer.Int64(tracer.AttrLimit, int64(limit)),
	)
	events, err := r.store.ListRecent(ctx, limit)
	span.End(err)
	return events, err
}

func (r *TracedReader) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]Event, error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanAuditList,
		tracer.Int64(tracer.AttrLimit, int64(limit)),
		tracer.String(tracer.AttrSubjectID, actorID.String()),
	)
	events, err := r.store.ListByActor(ctx, actorID, limit)
	span.End(err)
	return events, err
}
