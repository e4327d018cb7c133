package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/glosshub/gloss/internal/txcache"
)

// PostgresDirectory implements Directory over a pgx Querier, so it can run on
// a bare pool or inside a request's unit of work.
type PostgresDirectory struct {
	db txcache.Querier
}

// NewDirectory creates a Directory backed by the given querier.
func NewDirectory(db txcache.Querier) Directory {
	return &PostgresDirectory{db: db}
}

const userColumns = `userid, username, authority, password_hash, activated, deleted, created_at`

// GetByUserid retrieves a single user by its canonical userid.
func (d *PostgresDirectory) GetByUserid(ctx context.Context, userid string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE userid = $1`

	u, err := scanUser(d.db.QueryRow(ctx, query, userid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves a single user by username within an authority.
func (d *PostgresDirectory) GetByUsername(ctx context.Context, username, authority string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND authority = $2`

	u, err := scanUser(d.db.QueryRow(ctx, query, username, authority))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.Userid, &u.Username, &u.Authority,
		&u.PasswordHash, &u.Activated, &u.Deleted,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
