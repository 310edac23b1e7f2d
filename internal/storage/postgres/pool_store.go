package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Insert adds a new pool. Returns ErrDuplicateKey if pool_address exists.
func (s *PoolStore) Insert(ctx context.Context, p *domain.Pool) error {
	query := `
		INSERT INTO pools (pool_address, token_address, dex, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PoolAddress,
		p.TokenAddress,
		p.Dex,
		p.Active,
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(ctx context.Context, poolAddress string) (*domain.Pool, error) {
	query := `
		SELECT pool_address, token_address, dex, active, created_at
		FROM pools
		WHERE pool_address = $1
	`

	row := s.pool.QueryRow(ctx, query, poolAddress)
	p, err := scanPool(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by address: %w", err)
	}
	return p, nil
}

// ListByToken retrieves all pools of a token, ordered by created_at ASC.
func (s *PoolStore) ListByToken(ctx context.Context, tokenAddress string) ([]*domain.Pool, error) {
	query := `
		SELECT pool_address, token_address, dex, active, created_at
		FROM pools
		WHERE token_address = $1
		ORDER BY created_at ASC, pool_address ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("list pools by token: %w", err)
	}
	defer rows.Close()

	var pools []*domain.Pool
	for rows.Next() {
		var p domain.Pool
		if err := rows.Scan(&p.PoolAddress, &p.TokenAddress, &p.Dex, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}
		pools = append(pools, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}

	return pools, nil
}

// SetActive flips the active flag. Returns ErrNotFound if not exists.
func (s *PoolStore) SetActive(ctx context.Context, poolAddress string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pools SET active = $2 WHERE pool_address = $1`,
		poolAddress, active,
	)
	if err != nil {
		return fmt.Errorf("set pool active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPool scans a single row into a Pool.
func scanPool(row pgx.Row) (*domain.Pool, error) {
	var p domain.Pool
	err := row.Scan(&p.PoolAddress, &p.TokenAddress, &p.Dex, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
