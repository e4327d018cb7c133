package txcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoTransaction is returned when Commit or Rollback is called with no
// transaction in progress.
var ErrNoTransaction = errors.New("no transaction in progress")

// Querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Repositories are written against it so the same code runs on a bare pool or
// inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner can start a top-level transaction. *pgxpool.Pool satisfies it.
type Beginner interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UnitOfWork tracks the transaction stack of one logical request. The first
// Begin opens a real transaction; further Begins open savepoints via pgx
// nested transactions. Hooks registered with OnOuterEnd fire only when the
// outermost transaction ends (commit or rollback); savepoint completion
// never fires them.
type UnitOfWork struct {
	db         Beginner
	stack      []pgx.Tx
	onOuterEnd []func()
}

// NewUnitOfWork creates a UnitOfWork over the given database handle.
func NewUnitOfWork(db Beginner) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Begin opens a transaction, or a savepoint when one is already open.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	var (
		tx  pgx.Tx
		err error
	)
	if len(u.stack) == 0 {
		tx, err = u.db.Begin(ctx)
	} else {
		tx, err = u.stack[len(u.stack)-1].Begin(ctx)
	}
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	u.stack = append(u.stack, tx)
	return nil
}

// Commit commits the innermost transaction. Committing the outermost one
// fires the registered outer-end hooks.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, err := u.pop()
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the innermost transaction. Rolling back the outermost
// one fires the registered outer-end hooks.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, err := u.pop()
	if err != nil {
		return err
	}
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) pop() (pgx.Tx, error) {
	if len(u.stack) == 0 {
		return nil, ErrNoTransaction
	}
	tx := u.stack[len(u.stack)-1]
	u.stack = u.stack[:len(u.stack)-1]
	if len(u.stack) == 0 {
		for _, f := range u.onOuterEnd {
			f()
		}
	}
	return tx, nil
}

// OnOuterEnd registers a hook invoked each time the outermost transaction
// ends. Hooks stay registered for subsequent transactions on the same unit
// of work.
func (u *UnitOfWork) OnOuterEnd(f func()) {
	u.onOuterEnd = append(u.onOuterEnd, f)
}

// InTransaction reports whether any transaction is currently open.
func (u *UnitOfWork) InTransaction() bool {
	return len(u.stack) > 0
}

// Exec runs on the innermost open transaction, or directly on the database
// handle when none is open.
func (u *UnitOfWork) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return u.querier().Exec(ctx, sql, args...)
}

// Query runs on the innermost open transaction, or directly on the database
// handle when none is open.
func (u *UnitOfWork) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return u.querier().Query(ctx, sql, args...)
}

// QueryRow runs on the innermost open transaction, or directly on the
// database handle when none is open.
func (u *UnitOfWork) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return u.querier().QueryRow(ctx, sql, args...)
}

func (u *UnitOfWork) querier() Querier {
	if len(u.stack) > 0 {
		return u.stack[len(u.stack)-1]
	}
	return u.db
}
