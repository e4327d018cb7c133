package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/glosshub/gloss/internal/txcache"
)

// PostgresRepository implements Repository over a pgx Querier.
type PostgresRepository struct {
	db txcache.Querier
}

// NewRepository creates a Repository backed by the given querier.
func NewRepository(db txcache.Querier) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new ticket record.
func (r *PostgresRepository) Create(ctx context.Context, t *Ticket) error {
	query := `
		INSERT INTO authtickets (id, user_userid, expires, updated)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		t.ID, t.UserUserid, t.Expires, t.Updated,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a single ticket by its id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Ticket, error) {
	query := `
		SELECT id, user_userid, expires, updated, created_at
		FROM authtickets
		WHERE id = $1`

	var t Ticket
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserUserid, &t.Expires, &t.Updated, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("querying ticket: %w", err)
	}

	return &t, nil
}

// Refresh updates a ticket's expiry and last-refresh timestamp.
func (r *PostgresRepository) Refresh(ctx context.Context, id string, expires, updated time.Time) error {
	query := `UPDATE authtickets SET expires = $2, updated = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, expires, updated)
	if err != nil {
		return fmt.Errorf("refreshing ticket: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// Delete removes a ticket record. Deleting a missing ticket is a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM authtickets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting ticket: %w", err)
	}
	return nil
}
