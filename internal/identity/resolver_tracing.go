package identity

import (
	"context"

	"caregate/internal/platform/tracer"

	"github.com/google/uuid"
)

// TracingResolver decorates a Resolver with a span per resolution.
type TracingResolver struct {
	inner  Resolver
	tracer tracer.Tracer
}

func NewTracingResolver(inner Resolver, t tracer.Tracer) *TracingResolver {
	return &TracingResolver{inner: inner, tracer: t}
}

func (r *TracingResolver) Resolve(ctx context.Context, subject uuid.UUID) (*Identity, error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanIdentityResolve,
		tracer.String(tracer.AttrSubjectID, subject.String()),
	)
	id, err := r.inner.Resolve(ctx, subject)
	span.End(err)
	return id, err
}
