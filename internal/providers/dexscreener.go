package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/fetch"
)

// DexScreenerName identifies the provider for rate limiting and cache keys.
const DexScreenerName = "dexscreener"

// DefaultDexScreenerBaseURL is the public DexScreener API endpoint.
const DefaultDexScreenerBaseURL = "https://api.dexscreener.com"

// Pair is one tradable pool as reported by DexScreener.
type Pair struct {
	PairAddress  string
	DexID        string
	Liquidity    float64
	Volume5m     float64
	Volume1h     float64
	TxCount5m    int
	TxCount1h    int
	Buys5m       int
	Sells5m      int
	BuyVolume5m  float64
	SellVolume5m float64
}

// DexScreener is a typed client for the DexScreener token pairs endpoint.
// Pairs on excluded dex ids are filtered out before they reach callers.
type DexScreener struct {
	fetcher  Fetcher
	baseURL  string
	excluded map[string]struct{}
	logger   zerolog.Logger
}

// DexScreenerOption configures DexScreener.
type DexScreenerOption func(*DexScreener)

// WithDexScreenerBaseURL overrides the API base URL. Used by tests.
func WithDexScreenerBaseURL(u string) DexScreenerOption {
	return func(d *DexScreener) {
		d.baseURL = u
	}
}

// WithDexScreenerLogger sets the client logger.
func WithDexScreenerLogger(logger zerolog.Logger) DexScreenerOption {
	return func(d *DexScreener) {
		d.logger = logger
	}
}

// NewDexScreener creates a DexScreener client. excludedDexIDs lists dex ids
// whose pairs are dropped (case-insensitive).
func NewDexScreener(fetcher Fetcher, excludedDexIDs []string, opts ...DexScreenerOption) *DexScreener {
	excluded := make(map[string]struct{}, len(excludedDexIDs))
	for _, id := range excludedDexIDs {
		excluded[strings.ToLower(id)] = struct{}{}
	}
	d := &DexScreener{
		fetcher:  fetcher,
		baseURL:  DefaultDexScreenerBaseURL,
		excluded: excluded,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type dsResponse struct {
	Pairs []dsPair `json:"pairs"`
}

type dsPair struct {
	PairAddress string `json:"pairAddress"`
	DexID       string `json:"dexId"`
	Liquidity   struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		M5 *float64 `json:"m5"`
		H1 *float64 `json:"h1"`
	} `json:"volume"`
	Txns struct {
		M5 dsTxnWindow `json:"m5"`
		H1 dsTxnWindow `json:"h1"`
	} `json:"txns"`
}

type dsTxnWindow struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Pairs fetches all non-excluded pairs for a token address.
// An empty pairs array is a valid answer (token not yet indexed), not an error.
func (d *DexScreener) Pairs(ctx context.Context, tokenAddress string) ([]Pair, error) {
	payload, fromCache, err := d.fetcher.Fetch(ctx, DexScreenerName,
		d.baseURL+"/latest/dex/tokens/"+tokenAddress, nil, fetch.Options{})
	if err != nil {
		return nil, fmt.Errorf("dexscreener pairs %s: %w", tokenAddress, err)
	}

	var resp dsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	pairs := make([]Pair, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		if p.PairAddress == "" {
			return nil, fmt.Errorf("%w: pair without address for %s", ErrMalformedResponse, tokenAddress)
		}
		if _, skip := d.excluded[strings.ToLower(p.DexID)]; skip {
			continue
		}
		buys5m, sells5m := p.Txns.M5.Buys, p.Txns.M5.Sells
		vol5m := deref(p.Volume.M5)
		pair := Pair{
			PairAddress: p.PairAddress,
			DexID:       p.DexID,
			Liquidity:   deref(p.Liquidity.USD),
			Volume5m:    vol5m,
			Volume1h:    deref(p.Volume.H1),
			TxCount5m:   buys5m + sells5m,
			TxCount1h:   p.Txns.H1.Buys + p.Txns.H1.Sells,
			Buys5m:      buys5m,
			Sells5m:     sells5m,
		}
		// DexScreener reports trade counts but not per-side volume, so the
		// 5m volume is apportioned by trade counts when any trades exist.
		if total := buys5m + sells5m; total > 0 {
			pair.BuyVolume5m = vol5m * float64(buys5m) / float64(total)
			pair.SellVolume5m = vol5m * float64(sells5m) / float64(total)
		}
		pairs = append(pairs, pair)
	}

	d.logger.Debug().
		Str("token", tokenAddress).
		Int("pairs", len(pairs)).
		Int("total_pairs", len(resp.Pairs)).
		Bool("from_cache", fromCache).
		Msg("pairs fetched")

	return pairs, nil
}
