package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Manager runs read-committed transactions against Postgres, retrying
// the whole closure on serialization failures and deadlocks.
type Manager struct {
	DB         *sql.DB
	MaxRetries int
}

const defaultMaxRetries = 5

var ErrRetryExhausted = errors.New("transaction retry exhausted")

// SQLSTATE classes that are safe to replay.
const (
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
)

func (m *Manager) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx *sql.Tx) error,
) error {
	attempts := m.MaxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = m.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (m *Manager) attempt(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}
