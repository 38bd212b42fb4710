package tx

import (
	"context"
	"database/sql"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

// Nop runs fn without a transaction, for stores that are atomic per call.
type Nop struct{}

func (Nop) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return fn(ctx, nil)
}
