package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if the address exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (
			address, symbol, status, created_at, activated_at, last_score, last_scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Address,
		t.Symbol,
		string(t.Status),
		t.CreatedAt,
		t.ActivatedAt,
		t.LastScore,
		t.LastScoredAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByAddress retrieves a token by address. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(ctx context.Context, address string) (*domain.Token, error) {
	query := `
		SELECT address, symbol, status, created_at, activated_at, last_score, last_scored_at
		FROM tokens
		WHERE address = $1
	`

	row := s.pool.QueryRow(ctx, query, address)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by address: %w", err)
	}
	return t, nil
}

// ListByStatus retrieves tokens in a given state, ordered by created_at ASC.
func (s *TokenStore) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Token, error) {
	query := `
		SELECT address, symbol, status, created_at, activated_at, last_score, last_scored_at
		FROM tokens
		WHERE status = $1
		ORDER BY created_at ASC, address ASC
	`
	args := []any{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tokens by status: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// UpdateStatus sets the lifecycle state of a token.
func (s *TokenStore) UpdateStatus(ctx context.Context, address string, status domain.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET status = $2 WHERE address = $1`,
		address, string(status),
	)
	if err != nil {
		return fmt.Errorf("update token status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkActivated sets status Active, the activation timestamp and optional symbol.
func (s *TokenStore) MarkActivated(ctx context.Context, address string, activatedAtMs int64, symbol *string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tokens
		SET status = $2, activated_at = $3, symbol = COALESCE($4, symbol)
		WHERE address = $1
	`, address, string(domain.StatusActive), activatedAtMs, symbol)
	if err != nil {
		return fmt.Errorf("mark token activated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateLastScore updates the denormalized last-score fields.
func (s *TokenStore) UpdateLastScore(ctx context.Context, address string, score float64, scoredAtMs int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET last_score = $2, last_scored_at = $3 WHERE address = $1`,
		address, score, scoredAtMs,
	)
	if err != nil {
		return fmt.Errorf("update token last score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanToken scans a single row into a Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	var statusStr string

	err := row.Scan(
		&t.Address,
		&t.Symbol,
		&statusStr,
		&t.CreatedAt,
		&t.ActivatedAt,
		&t.LastScore,
		&t.LastScoredAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.Status(statusStr)
	return &t, nil
}

// scanTokens scans multiple rows into a slice of Token.
func scanTokens(rows pgx.Rows) ([]*domain.Token, error) {
	var tokens []*domain.Token

	for rows.Next() {
		var t domain.Token
		var statusStr string

		err := rows.Scan(
			&t.Address,
			&t.Symbol,
			&statusStr,
			&t.CreatedAt,
			&t.ActivatedAt,
			&t.LastScore,
			&t.LastScoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}

		t.Status = domain.Status(statusStr)
		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}
