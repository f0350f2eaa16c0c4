package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PublisherTracingMiddleware wraps a watermill publisher and records one
// span per published message.
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware creates a tracing publisher.
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{
		publisher: publisher,
		tracer:    tracer,
	}
}

// Publish implements message.Publisher.
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		spanCtx, span := p.tracer.Start(ctx, fmt.Sprintf("pubsub.publish.%s", topic),
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(
				attribute.String("messaging.system", "watermill"),
				attribute.String("messaging.operation", "publish"),
				attribute.String("messaging.destination", topic),
				attribute.String("messaging.message_id", msg.UUID),
				attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
			),
		)
		msg.SetContext(spanCtx)
		spans = append(spans, span)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

// Close closes the underlying publisher.
func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}
