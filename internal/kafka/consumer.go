package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

type Handler interface {
	Handle(ctx context.Context, record []byte)
}

type kgoRecordCarrier struct {
	record *kgo.Record
}

func (c kgoRecordCarrier) Get(key string) string {
	for _, h := range c.record.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c kgoRecordCarrier) Set(key string, value string) {}

func (c kgoRecordCarrier) Keys() []string {
	keys := make([]string, 0, len(c.record.Headers))
	for _, h := range c.record.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// Consumer feeds every record of its topics to a Handler. It runs as a
// supervised service.
type Consumer struct {
	client  *kgo.Client
	handler Handler
}

func NewConsumer(brokers, topics []string, group string, handler Handler) (*Consumer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.OnPartitionsRevoked(func(ctx context.Context, _ *kgo.Client, _ map[string][]int32) {
			observability.GetLogger(ctx).Info("kafka partitions revoked")
		}),
		kgo.OnPartitionsAssigned(func(ctx context.Context, _ *kgo.Client, _ map[string][]int32) {
			observability.GetLogger(ctx).Info("kafka partitions assigned")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Consumer{client: cl, handler: handler}, nil
}

// Serve polls until ctx is canceled.
func (c *Consumer) Serve(ctx context.Context) error {
	log := observability.GetLogger(ctx)
	log.Info("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			log.Info("kafka consumer loop stopping: context canceled")
			return ctx.Err()
		}
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}

		if errs := fetches.Errors(); len(errs) > 0 {
			for _, ferr := range errs {
				if errors.Is(ferr.Err, context.Canceled) {
					return ctx.Err()
				}
				observability.KafkaRecordsConsumedTotal.WithLabelValues(ferr.Topic, "fetch_error").Inc()
				log.Error("kafka fetch error",
					zap.String("topic", ferr.Topic),
					zap.Int32("partition", ferr.Partition),
					zap.Error(ferr.Err))
			}
			continue
		}

		fetches.EachRecord(func(r *kgo.Record) {
			rctx := otel.GetTextMapPropagator().Extract(ctx, kgoRecordCarrier{record: r})
			c.handler.Handle(rctx, r.Value)
			observability.KafkaRecordsConsumedTotal.WithLabelValues(r.Topic, "handled").Inc()
		})
	}
}

func (c *Consumer) String() string {
	return "kafka-consumer"
}

func (c *Consumer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
