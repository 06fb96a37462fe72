package utils

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"silverrock/internal/interfaces"
)

// WithTransaction begins a new transaction on pool, runs fn inside of it and commits
// if fn succeeds. Any error of fn rolls the transaction back and is returned unchanged,
// so callers can still match it with errors.Is.
func WithTransaction(ctx context.Context, pool interfaces.PgxPoolIface, fn func(tx pgx.Tx) error) (err error) {
	LogMessageWithFields(ctx, "debug", "Beginning transaction...")

	tx, err := pool.Begin(ctx)
	if err != nil {
		LogMessageWithFieldsAndError(ctx, "error", "Error beginning transaction", err)
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		RollbackTransaction(ctx, tx, err)
		return err
	}

	return CommitTransaction(ctx, tx)
}

// RollbackTransaction rolls back the given transaction because of cause.
// Errors during the rollback are logged, except if the transaction is already closed.
func RollbackTransaction(ctx context.Context, tx pgx.Tx, cause error) {
	LogMessageWithFieldsAndError(ctx, "debug", "Rolling back transaction...", cause)

	if err := tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return
		}
		LogMessageWithFieldsAndError(ctx, "error", "Error rolling back transaction", err)
		return
	}

	LogMessageWithFields(ctx, "debug", "Transaction rolled back")
}

// CommitTransaction attempts to commit the given transaction.
// If the commit fails, it logs the error and returns it.
func CommitTransaction(ctx context.Context, tx pgx.Tx) error {
	LogMessageWithFields(ctx, "debug", "Committing transaction...")

	if err := tx.Commit(ctx); err != nil {
		LogMessageWithFieldsAndError(ctx, "error", "Error committing transaction", err)
		return err
	}

	LogMessageWithFields(ctx, "debug", "Transaction committed")
	return nil
}
