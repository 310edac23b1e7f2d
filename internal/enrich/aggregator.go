package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/providers"
	"solana-token-radar/internal/storage"
)

// ErrMissedCycle is returned when neither the primary provider nor any pool
// yielded data; the caller must skip scoring and transition evaluation.
var ErrMissedCycle = errors.New("missed enrichment cycle")

// Overviewer is the primary provider surface used by the aggregator.
type Overviewer interface {
	TokenOverview(ctx context.Context, address string, bypassCache bool) (*providers.TokenOverview, error)
}

// PairLister is the secondary per-pool provider surface.
type PairLister interface {
	Pairs(ctx context.Context, tokenAddress string) ([]providers.Pair, error)
}

// Metrics is the assembled per-token view for one enrichment cycle.
// Window figures are provider-reported rollups.
type Metrics struct {
	TokenAddress string
	TimestampMs  int64
	Symbol       *string
	Price        *float64
	Liquidity    float64
	TxCount5m    int
	TxCount1h    int
	Volume5m     float64
	Volume1h     float64
	BuyVolume5m  float64
	SellVolume5m float64
	Holders      int
	// Holders1hAgo comes from this repo's own stored snapshots, nil until
	// the token has at least an hour of history.
	Holders1hAgo *int
	PoolCount    int
}

// Aggregator assembles snapshots for a token from the primary (aggregated)
// and secondary (per-pool) providers and persists them.
type Aggregator struct {
	primary    Overviewer
	secondary  PairLister
	pools      storage.PoolStore
	poolSnaps  storage.PoolSnapshotStore
	tokenSnaps storage.TokenSnapshotStore
	logger     zerolog.Logger
	now        func() time.Time
}

// AggregatorOption configures Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the aggregator logger.
func WithLogger(logger zerolog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator over the given providers and stores.
func NewAggregator(
	primary Overviewer,
	secondary PairLister,
	pools storage.PoolStore,
	poolSnaps storage.PoolSnapshotStore,
	tokenSnaps storage.TokenSnapshotStore,
	opts ...AggregatorOption,
) *Aggregator {
	a := &Aggregator{
		primary:    primary,
		secondary:  secondary,
		pools:      pools,
		poolSnaps:  poolSnaps,
		tokenSnaps: tokenSnaps,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect runs one enrichment cycle for a token: fetch, upsert newly observed
// pools, persist snapshots, and return the assembled metrics. bypassCache
// forces live fetches when an activation decision needs fresh data.
func (a *Aggregator) Collect(ctx context.Context, token *domain.Token, bypassCache bool) (*Metrics, error) {
	nowMs := a.now().UnixMilli()

	overview, ovErr := a.primary.TokenOverview(ctx, token.Address, bypassCache)
	if ovErr != nil {
		a.logger.Warn().Str("token", token.Address).Err(ovErr).Msg("primary provider failed")
	}

	pairs, prErr := a.secondary.Pairs(ctx, token.Address)
	if prErr != nil {
		a.logger.Warn().Str("token", token.Address).Err(prErr).Msg("secondary provider failed")
	}

	if ovErr != nil && len(pairs) == 0 {
		return nil, fmt.Errorf("%w: token %s: primary: %v, secondary pairs: %d (%v)",
			ErrMissedCycle, token.Address, ovErr, len(pairs), prErr)
	}

	snaps := a.buildPoolSnapshots(ctx, token.Address, pairs, nowMs)
	if len(snaps) > 0 {
		if err := a.poolSnaps.InsertBulk(ctx, snaps); err != nil {
			// The cycle's metrics are still usable without the rows.
			a.logger.Warn().Str("token", token.Address).Err(err).Msg("pool snapshot insert failed")
		}
	}

	m := a.assemble(token.Address, overview, pairs, nowMs)
	m.Holders1hAgo = a.holdersHourAgo(ctx, token.Address, nowMs)

	if overview != nil {
		snap := &domain.TokenSnapshot{
			TokenAddress: token.Address,
			TimestampMs:  nowMs,
			Holders:      overview.Holders,
			Price:        overview.Price,
		}
		if err := a.tokenSnaps.Insert(ctx, snap); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			a.logger.Warn().Str("token", token.Address).Err(err).Msg("token snapshot insert failed")
		}
	}

	return m, nil
}

// buildPoolSnapshots upserts any newly observed pools and converts pairs to
// snapshot rows. Pairs with no data are skipped rather than failing the cycle.
func (a *Aggregator) buildPoolSnapshots(ctx context.Context, tokenAddress string, pairs []providers.Pair, nowMs int64) []*domain.PoolSnapshot {
	snaps := make([]*domain.PoolSnapshot, 0, len(pairs))
	for _, p := range pairs {
		pool := &domain.Pool{
			PoolAddress:  p.PairAddress,
			TokenAddress: tokenAddress,
			Dex:          p.DexID,
			Active:       true,
			CreatedAt:    nowMs,
		}
		if err := a.pools.Insert(ctx, pool); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			a.logger.Warn().Str("pool", p.PairAddress).Err(err).Msg("pool upsert failed, skipping pool")
			continue
		}
		snaps = append(snaps, &domain.PoolSnapshot{
			PoolAddress:  p.PairAddress,
			TokenAddress: tokenAddress,
			TimestampMs:  nowMs,
			TxCount5m:    p.TxCount5m,
			TxCount1h:    p.TxCount1h,
			Volume5m:     p.Volume5m,
			Volume1h:     p.Volume1h,
			BuyVolume5m:  p.BuyVolume5m,
			SellVolume5m: p.SellVolume5m,
			Liquidity:    p.Liquidity,
		})
	}
	return snaps
}

// assemble prefers the primary's aggregated figures and falls back to summing
// pool pairs when the primary is down this cycle.
func (a *Aggregator) assemble(tokenAddress string, overview *providers.TokenOverview, pairs []providers.Pair, nowMs int64) *Metrics {
	m := &Metrics{
		TokenAddress: tokenAddress,
		TimestampMs:  nowMs,
		PoolCount:    len(pairs),
	}

	if overview != nil {
		m.Symbol = overview.Symbol
		m.Price = overview.Price
		m.Liquidity = overview.Liquidity
		m.TxCount5m = int(overview.TxCount5m)
		m.TxCount1h = int(overview.TxCount1h)
		m.Volume5m = overview.Volume5m
		m.Volume1h = overview.Volume1h
		m.BuyVolume5m = overview.BuyVolume5m
		m.SellVolume5m = overview.SellVolume5m
		m.Holders = overview.Holders
		return m
	}

	for _, p := range pairs {
		m.Liquidity += p.Liquidity
		m.TxCount5m += p.TxCount5m
		m.TxCount1h += p.TxCount1h
		m.Volume5m += p.Volume5m
		m.Volume1h += p.Volume1h
		m.BuyVolume5m += p.BuyVolume5m
		m.SellVolume5m += p.SellVolume5m
	}
	return m
}

// holdersHourAgo returns the holder count from the most recent snapshot at
// least one hour old, or nil when no such snapshot exists.
func (a *Aggregator) holdersHourAgo(ctx context.Context, tokenAddress string, nowMs int64) *int {
	cutoff := nowMs - time.Hour.Milliseconds()
	snaps, err := a.tokenSnaps.GetByTimeRange(ctx, tokenAddress, 0, cutoff)
	if err != nil || len(snaps) == 0 {
		if err != nil {
			a.logger.Warn().Str("token", tokenAddress).Err(err).Msg("holders history lookup failed")
		}
		return nil
	}
	h := snaps[len(snaps)-1].Holders
	return &h
}
