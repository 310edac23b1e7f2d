package domain

// Components holds the four momentum component values of one scoring cycle.
type Components struct {
	TxAccel            float64 // (tx_5m/5) / (tx_1h/60)
	VolMomentum        float64 // vol_5m / (vol_1h/12)
	HolderGrowth       float64 // ln(1 + Δholders/holders_1h_ago)
	OrderflowImbalance float64 // (buy_5m - sell_5m) / (buy_5m + sell_5m)
}

// Weights holds the relative importance of each component.
// Weights are non-negative and need not sum to 1.
type Weights struct {
	TxAccel            float64
	VolMomentum        float64
	HolderGrowth       float64
	OrderflowImbalance float64
}

// ScoreRecord represents one scoring cycle's result for an Active token.
// Corresponds to score_records table in ClickHouse. Append-only.
type ScoreRecord struct {
	TokenAddress string
	TimestampMs  int64
	Score        float64 // EWMA-smoothed composite
	RawScore     float64 // weighted sum before smoothing
	Components   Components
	Weights      Weights // weights in effect when the record was produced
}
