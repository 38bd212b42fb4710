package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

const defaultMaxRetries = 3

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Topic() string
}

type event struct {
	id            int64
	aggregateType string
	aggregateID   string
	eventType     string
	payload       []byte
	createdAt     time.Time
	retryCount    int
}

// Worker relays committed outbox rows to Kafka. Rows are claimed with
// SKIP LOCKED so several instances can run it at once.
type Worker struct {
	DB         *sql.DB
	Producer   Publisher
	BatchSize  int
	PollDelay  time.Duration
	MaxRetries int
}

func NewWorker(db *sql.DB, p Publisher, batchSize int, delay time.Duration) *Worker {
	return &Worker{
		DB:         db,
		Producer:   p,
		BatchSize:  batchSize,
		PollDelay:  delay,
		MaxRetries: defaultMaxRetries,
	}
}

// Serve implements suture.Service.
func (w *Worker) Serve(ctx context.Context) error {
	log := observability.GetLogger(ctx)
	log.Info("outbox worker started", zap.String("topic", w.Producer.Topic()))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopping")
			return ctx.Err()
		default:
		}

		idle, err := w.processBatch(ctx)
		if err != nil {
			log.Error("outbox error", zap.Error(err))
			idle = true
		}
		if idle {
			select {
			case <-ctx.Done():
			case <-time.After(w.PollDelay):
			}
		}
	}
}

func (w *Worker) String() string {
	return "outbox-worker"
}

// processBatch reports idle when there was nothing to send.
func (w *Worker) processBatch(ctx context.Context) (bool, error) {
	tx, err := w.DB.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return true, err
	}
	defer tx.Rollback()

	events, err := claim(ctx, tx, w.BatchSize)
	if err != nil {
		return true, err
	}
	if len(events) == 0 {
		return true, nil
	}

	sent, failed, pubErr := deliver(ctx, w.Producer, events)

	for _, id := range sent {
		if _, err := tx.ExecContext(ctx, `
			UPDATE outbox_events
			SET processed_at = now()
			WHERE id = $1
		`, id); err != nil {
			return true, err
		}
	}

	if failed != nil {
		observability.OutboxPublishFailuresTotal.WithLabelValues("messaging", w.Producer.Topic()).Inc()
		if err := w.recordFailure(ctx, tx, failed, pubErr); err != nil {
			return true, err
		}
	}

	if err := tx.Commit(); err != nil {
		return true, err
	}
	return pubErr != nil, pubErr
}

func claim(ctx context.Context, tx *sql.Tx, limit int) ([]event, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, retry_count
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []event
	for rows.Next() {
		var e event
		if err := rows.Scan(&e.id, &e.aggregateType, &e.aggregateID, &e.eventType, &e.payload, &e.createdAt, &e.retryCount); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// deliver publishes in id order and stops at the first failure, so a
// conversation's events never overtake each other.
func deliver(ctx context.Context, p Publisher, events []event) (sent []int64, failed *event, err error) {
	for i := range events {
		e := &events[i]
		if err := p.Publish(ctx, e.aggregateID, e.payload); err != nil {
			return sent, e, err
		}
		sent = append(sent, e.id)
	}
	return sent, nil, nil
}

func (w *Worker) recordFailure(ctx context.Context, tx *sql.Tx, e *event, cause error) error {
	maxRetries := w.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	if e.retryCount < maxRetries {
		_, err := tx.ExecContext(ctx, `
			UPDATE outbox_events
			SET retry_count = retry_count + 1, error = $2
			WHERE id = $1
		`, e.id, cause.Error())
		return err
	}

	observability.GetLogger(ctx).Warn("outbox event moved to dlq",
		zap.Int64("event_id", e.id),
		zap.String("event_type", e.eventType),
		zap.Error(cause))

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, created_at, failed_at, error, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7, $8)
	`, e.id, e.aggregateType, e.aggregateID, e.eventType, e.payload, e.createdAt, cause.Error(), e.retryCount+1); err != nil {
		return fmt.Errorf("failed to insert dlq row: %w", err)
	}

	_, err := tx.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = $1`, e.id)
	return err
}
