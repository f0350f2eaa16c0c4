package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
)

// WatermillBridge implements Publisher and Subscriber on top of watermill's
// in-memory GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	closer message.Subscriber
	logger *slog.Logger
}

// metaKeyTopic carries Message.Topic through watermill metadata.
const metaKeyTopic = "topic"

// BridgeOption configures a WatermillBridge.
type BridgeOption func(*bridgeConfig)

type bridgeConfig struct {
	tracer trace.Tracer
	buffer int64
}

// WithTracer wraps the publisher so each publish is recorded as a span.
func WithTracer(tracer trace.Tracer) BridgeOption {
	return func(c *bridgeConfig) {
		c.tracer = tracer
	}
}

// WithOutputBuffer sets the per-subscriber channel buffer.
func WithOutputBuffer(n int64) BridgeOption {
	return func(c *bridgeConfig) {
		c.buffer = n
	}
}

// NewWatermillBridge initializes an in-memory bus. Publish blocks until
// every subscriber has acknowledged the message, which keeps delivery in
// publish order.
func NewWatermillBridge(opts ...BridgeOption) *WatermillBridge {
	cfg := bridgeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            cfg.buffer,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)

	var pub message.Publisher = goChannel
	if cfg.tracer != nil {
		pub = NewPublisherTracingMiddleware(goChannel, cfg.tracer)
	}

	return &WatermillBridge{
		pub:    pub,
		sub:    goChannel,
		closer: goChannel,
		logger: slog.Default().With("service", "pubsub"),
	}
}

func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyTopic {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements Publisher.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements Subscriber. Messages are processed sequentially in a
// background goroutine. A handler error is logged and the message is still
// acknowledged; nothing is redelivered.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := mapToPubSubMessage(wmMsg)
			if err := handler(wmMsg.Context(), msg); err != nil {
				wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.logger.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts the bus down and ends every subscription.
func (wb *WatermillBridge) Close() error {
	return wb.closer.Close()
}
