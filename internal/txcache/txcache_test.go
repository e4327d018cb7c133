package txcache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glosshub/gloss/internal/txcache"
)

// fakeTx implements pgx.Tx without touching a database. Begin returns a
// nested fakeTx, mirroring pgx savepoint behavior.
type fakeTx struct{}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                               { return nil }

type fakeDB struct{}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }
func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func countingFn(calls *int) func(context.Context, string) (int, error) {
	return func(ctx context.Context, key string) (int, error) {
		*calls++
		return *calls, nil
	}
}

func TestMemoize_CachesWithinTransaction(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})
	require.NoError(t, uow.Begin(ctx))

	calls := 0
	fn := txcache.Memoize(uow, countingFn(&calls))

	v1, err := fn(ctx, "key")
	require.NoError(t, err)
	v2, err := fn(ctx, "key")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestMemoize_DistinctKeysComputedSeparately(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})
	require.NoError(t, uow.Begin(ctx))

	calls := 0
	fn := txcache.Memoize(uow, countingFn(&calls))

	_, err := fn(ctx, "a")
	require.NoError(t, err)
	_, err = fn(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestMemoize_OuterCommitClearsCache(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})
	require.NoError(t, uow.Begin(ctx))

	calls := 0
	fn := txcache.Memoize(uow, countingFn(&calls))

	_, err := fn(ctx, "key")
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))

	require.NoError(t, uow.Begin(ctx))
	_, err = fn(ctx, "key")
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "cache should clear when the outer transaction ends")
}

func TestMemoize_OuterRollbackClearsCache(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})
	require.NoError(t, uow.Begin(ctx))

	calls := 0
	fn := txcache.Memoize(uow, countingFn(&calls))

	_, err := fn(ctx, "key")
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(ctx))

	_, err = fn(ctx, "key")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestMemoize_SavepointEndDoesNotClearCache(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})
	require.NoError(t, uow.Begin(ctx))

	calls := 0
	fn := txcache.Memoize(uow, countingFn(&calls))

	_, err := fn(ctx, "key")
	require.NoError(t, err)

	// Nested transaction (savepoint) committing must leave the cache alone.
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Commit(ctx))

	_, err = fn(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "savepoint completion must not clear the cache")

	// Same for a rolled-back savepoint.
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Rollback(ctx))

	_, err = fn(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestMemoize_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})
	require.NoError(t, uow.Begin(ctx))

	boom := errors.New("boom")
	calls := 0
	fn := txcache.Memoize(uow, func(ctx context.Context, key string) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return calls, nil
	})

	_, err := fn(ctx, "key")
	require.ErrorIs(t, err, boom)

	v, err := fn(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 2, v, "failed call must be retried, not served from cache")
}

func TestUnitOfWork_CommitWithoutBegin(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})

	assert.ErrorIs(t, uow.Commit(ctx), txcache.ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(ctx), txcache.ErrNoTransaction)
}

func TestUnitOfWork_InTransaction(t *testing.T) {
	ctx := context.Background()
	uow := txcache.NewUnitOfWork(&fakeDB{})

	assert.False(t, uow.InTransaction())
	require.NoError(t, uow.Begin(ctx))
	assert.True(t, uow.InTransaction())
	require.NoError(t, uow.Commit(ctx))
	assert.False(t, uow.InTransaction())
}
