package postgres

import (
	"context"
	"database/sql"
	"time"

	dErrors "coopreg/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner satisfies the services' StoreTx port with a SQL transaction
// that stores pick up through Conn.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db, timeout: defaultTxTimeout}
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return WithinTx(ctx, t.db, func(txCtx context.Context, _ Querier) error {
		return fn(txCtx)
	})
}
