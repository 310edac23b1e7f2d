package domain

// Pool represents a liquidity pool belonging to exactly one token.
// Corresponds to pools table in PostgreSQL. Pools never change parent token.
type Pool struct {
	PoolAddress  string // PRIMARY KEY, base58 pool address
	TokenAddress string // FK to tokens.address
	Dex          string // originating exchange identifier
	Active       bool
	CreatedAt    int64 // Unix timestamp in milliseconds
}
