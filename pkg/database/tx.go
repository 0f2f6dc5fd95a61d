package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type txKey struct{}

const maxTxAttempts = 3

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db PgxIface) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// InTx reports whether ctx already carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}

// TxRunner runs units of work inside a single Postgres transaction.
type TxRunner struct {
	db  PgxIface
	log *zap.Logger
}

func NewTxRunner(db PgxIface, log *zap.Logger) *TxRunner {
	return &TxRunner{
		db:  db,
		log: log.With(zap.String("component", "tx")),
	}
}

// WithinTx runs fn in a READ COMMITTED transaction. A ctx that already
// carries a transaction joins it instead of opening a new one. Serialization
// failures and deadlocks are retried.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.run(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		r.log.Warn("Retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return err
}

func (r *TxRunner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(context.Background()); rbErr != nil {
				r.log.Error("Could not rollback transaction after panic", zap.Error(rbErr))
			}
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.Error("Could not rollback transaction", zap.Error(rbErr))
			}
			return
		}

		if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("commit transaction: %w", err)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
