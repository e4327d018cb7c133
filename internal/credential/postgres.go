package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glosshub/gloss/internal/txcache"
)

// Postgres implements Store over a pgx Querier, so the same repository runs
// on a bare pool or inside a request's unit of work.
type Postgres struct {
	db txcache.Querier
}

// NewStore creates a Store backed by the given querier.
func NewStore(db txcache.Querier) Store {
	return &Postgres{db: db}
}

// GetByID retrieves an auth client. Client ids are UUIDs; a value that does
// not parse as one is reported as not found rather than a query error.
func (p *Postgres) GetByID(ctx context.Context, id string) (*AuthClient, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrClientNotFound
	}

	query := `
		SELECT id, secret, authority, grant_type, response_type, redirect_uri,
		       trusted, created_at
		FROM authclients
		WHERE id = $1`

	var c AuthClient
	err := p.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Secret, &c.Authority, &c.GrantType, &c.ResponseType,
		&c.RedirectURI, &c.Trusted, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("querying auth client: %w", err)
	}

	return &c, nil
}

// CreateCode inserts a new authorization code record.
func (p *Postgres) CreateCode(ctx context.Context, code *AuthzCode) error {
	query := `
		INSERT INTO authzcodes (code, user_id, authclient_id, expires)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := p.db.QueryRow(ctx, query,
		code.Code, code.UserID, code.ClientID, code.Expires,
	).Scan(&code.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting authorization code: %w", err)
	}

	return nil
}

// GetByCode retrieves an authorization code record by its code value.
func (p *Postgres) GetByCode(ctx context.Context, code string) (*AuthzCode, error) {
	query := `
		SELECT code, user_id, authclient_id, expires, created_at
		FROM authzcodes
		WHERE code = $1`

	var c AuthzCode
	err := p.db.QueryRow(ctx, query, code).Scan(
		&c.Code, &c.UserID, &c.ClientID, &c.Expires, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("querying authorization code: %w", err)
	}

	return &c, nil
}

// DeleteCode removes an authorization code. Deleting a missing code returns
// ErrCodeNotFound so a concurrent double-exchange surfaces as a validation
// failure.
func (p *Postgres) DeleteCode(ctx context.Context, code string) error {
	result, err := p.db.Exec(ctx, `DELETE FROM authzcodes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("deleting authorization code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// CreateToken inserts a new token record.
func (p *Postgres) CreateToken(ctx context.Context, token *Token) error {
	query := `
		INSERT INTO tokens (value, refresh_token, user_id, authclient_id,
		                    expires, refresh_token_expires)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := p.db.QueryRow(ctx, query,
		token.Value, token.RefreshToken, token.UserID, token.ClientID,
		token.Expires, token.RefreshTokenExpires,
	).Scan(&token.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}

	return nil
}

const tokenColumns = `value, refresh_token, user_id, authclient_id, expires,
	refresh_token_expires, created_at`

// GetByValue retrieves a token by its access token value.
func (p *Postgres) GetByValue(ctx context.Context, value string) (*Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE value = $1`
	return p.scanToken(p.db.QueryRow(ctx, query, value))
}

// GetByRefreshToken retrieves a token by its refresh token value.
func (p *Postgres) GetByRefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE refresh_token = $1`
	return p.scanToken(p.db.QueryRow(ctx, query, refreshToken))
}

// DeleteByValue removes a token by its access token value. Missing tokens
// return ErrTokenNotFound; revocation treats that as a no-op.
func (p *Postgres) DeleteByValue(ctx context.Context, value string) error {
	result, err := p.db.Exec(ctx, `DELETE FROM tokens WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteByRefreshToken removes a token by its refresh token value.
func (p *Postgres) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	result, err := p.db.Exec(ctx, `DELETE FROM tokens WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// SetRefreshTokenExpires updates the refresh token expiry on a token record.
func (p *Postgres) SetRefreshTokenExpires(ctx context.Context, refreshToken string, expires time.Time) error {
	query := `UPDATE tokens SET refresh_token_expires = $2 WHERE refresh_token = $1`

	result, err := p.db.Exec(ctx, query, refreshToken, expires)
	if err != nil {
		return fmt.Errorf("updating refresh token expiry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (p *Postgres) scanToken(row pgx.Row) (*Token, error) {
	var t Token
	err := row.Scan(
		&t.Value, &t.RefreshToken, &t.UserID, &t.ClientID,
		&t.Expires, &t.RefreshTokenExpires, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("querying token: %w", err)
	}
	return &t, nil
}
