package domain

// PoolSnapshot represents one poll cycle's market activity measurement for a pool.
// Corresponds to pool_snapshots table in ClickHouse. Append-only; timestamps
// strictly increasing per pool.
type PoolSnapshot struct {
	PoolAddress  string
	TokenAddress string
	TimestampMs  int64   // Unix timestamp in milliseconds
	TxCount5m    int     // trailing 5-minute transaction count
	TxCount1h    int     // trailing 1-hour transaction count
	Volume5m     float64 // trailing 5-minute volume
	Volume1h     float64 // trailing 1-hour volume
	BuyVolume5m  float64
	SellVolume5m float64
	Liquidity    float64
}

// TokenSnapshot represents one poll cycle's token-level measurement.
// Corresponds to token_snapshots table in ClickHouse. Append-only.
type TokenSnapshot struct {
	TokenAddress string
	TimestampMs  int64
	Holders      int
	Price        *float64 // USD price if the provider reports one (nullable)
}
