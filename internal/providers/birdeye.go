package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/fetch"
)

// BirdeyeName identifies the provider for rate limiting and cache keys.
const BirdeyeName = "birdeye"

// DefaultBirdeyeBaseURL is the public Birdeye API endpoint.
const DefaultBirdeyeBaseURL = "https://public-api.birdeye.so"

// TokenOverview is the aggregated per-token view from the primary provider.
// Window figures are provider-rolled-up, not re-aggregated locally.
type TokenOverview struct {
	Address      string
	Symbol       *string
	Price        *float64
	Liquidity    float64
	TxCount5m    float64
	TxCount1h    float64
	Volume5m     float64
	Volume1h     float64
	BuyVolume5m  float64
	SellVolume5m float64
	Holders      int
}

// Birdeye is a typed client for the Birdeye token_overview endpoint.
type Birdeye struct {
	fetcher Fetcher
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// BirdeyeOption configures Birdeye.
type BirdeyeOption func(*Birdeye)

// WithBirdeyeBaseURL overrides the API base URL. Used by tests.
func WithBirdeyeBaseURL(u string) BirdeyeOption {
	return func(b *Birdeye) {
		b.baseURL = u
	}
}

// WithBirdeyeLogger sets the client logger.
func WithBirdeyeLogger(logger zerolog.Logger) BirdeyeOption {
	return func(b *Birdeye) {
		b.logger = logger
	}
}

// NewBirdeye creates a Birdeye client. apiKey may be empty for the public tier.
func NewBirdeye(fetcher Fetcher, apiKey string, opts ...BirdeyeOption) *Birdeye {
	b := &Birdeye{
		fetcher: fetcher,
		baseURL: DefaultBirdeyeBaseURL,
		apiKey:  apiKey,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// birdeyeEnvelope wraps every Birdeye response.
type birdeyeEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type birdeyeOverviewData struct {
	Symbol       *string  `json:"symbol"`
	Price        *float64 `json:"price"`
	Liquidity    *float64 `json:"liquidity"`
	Holder       *int     `json:"holder"`
	Trade5m      *float64 `json:"trade5m"`
	Trade1h      *float64 `json:"trade1h"`
	Volume5mUSD  *float64 `json:"v5mUSD"`
	Volume1hUSD  *float64 `json:"v1hUSD"`
	BuyVol5mUSD  *float64 `json:"vBuy5mUSD"`
	SellVol5mUSD *float64 `json:"vSell5mUSD"`
}

// TokenOverview fetches the aggregated overview for one token. bypassCache
// forces a live call, used when freshness matters for an activation decision.
func (b *Birdeye) TokenOverview(ctx context.Context, address string, bypassCache bool) (*TokenOverview, error) {
	header := http.Header{}
	if b.apiKey != "" {
		header.Set("X-API-KEY", b.apiKey)
	}

	payload, fromCache, err := b.fetcher.Fetch(ctx, BirdeyeName, b.baseURL+"/defi/token_overview",
		map[string]string{"address": address},
		fetch.Options{BypassCache: bypassCache, Header: header},
	)
	if err != nil {
		return nil, fmt.Errorf("birdeye token_overview %s: %w", address, err)
	}

	var env birdeyeEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !env.Success || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: success=false or empty data for %s", ErrMalformedResponse, address)
	}

	var data birdeyeOverviewData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	b.logger.Debug().
		Str("address", address).
		Bool("from_cache", fromCache).
		Msg("token overview fetched")

	ov := &TokenOverview{
		Address:      address,
		Symbol:       data.Symbol,
		Price:        data.Price,
		Liquidity:    deref(data.Liquidity),
		TxCount5m:    deref(data.Trade5m),
		TxCount1h:    deref(data.Trade1h),
		Volume5m:     deref(data.Volume5mUSD),
		Volume1h:     deref(data.Volume1hUSD),
		BuyVolume5m:  deref(data.BuyVol5mUSD),
		SellVolume5m: deref(data.SellVol5mUSD),
	}
	if data.Holder != nil {
		ov.Holders = *data.Holder
	}
	return ov, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
