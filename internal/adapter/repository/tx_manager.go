package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type TxManager interface {
	DoWithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type txManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) TxManager {
	return &txManager{pool: pool}
}

func (m *txManager) DoWithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return translateConflict(err)
	}

	return translateConflict(tx.Commit(ctx))
}

// Postgres SQLSTATE codes that signal a retryable write conflict.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// translateConflict maps serialization failures, deadlocks, and insert races
// on the (location_id, item_name) key to domain.ErrMutationConflict so the
// caller can retry. Everything else passes through unchanged.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
			return domain.ErrMutationConflict
		}
	}
	return err
}
