package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

// Producer publishes outbox payloads to one topic. Keys are conversation
// ids, so the hash balancer keeps each conversation on one partition.
type Producer struct {
	w     *kafka.Writer
	topic string
	cb    *gobreaker.CircuitBreaker[struct{}]
}

func NewProducer(brokers []string, topic string) *Producer {
	p := &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		topic: topic,
	}

	p.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger(context.Background()).Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return p
}

func (p *Producer) Topic() string {
	return p.topic
}

// Publish sends one record. While the breaker is open it fails fast.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.w.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: value,
		})
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error { return p.w.Close() }
