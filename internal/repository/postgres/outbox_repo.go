package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertOutbox stages an event in the same transaction as the write that
// produced it. outbox.Worker relays it to Kafka.
func (r *Repository) InsertOutbox(
	ctx context.Context,
	tx *sql.Tx,
	aggregateType, aggregateID, eventType string,
	payload []byte,
) error {
	const stmt = `INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload)
VALUES ($1, $2, $3, $4)`

	if _, err := r.getter(tx).ExecContext(ctx, stmt, aggregateType, aggregateID, eventType, payload); err != nil {
		return fmt.Errorf("insert outbox %s/%s: %w", aggregateType, eventType, err)
	}
	return nil
}
