package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-radar/internal/fetch"
)

type fakeFetcher struct {
	payload []byte
	err     error

	lastProvider string
	lastURL      string
	lastParams   map[string]string
	lastOpts     fetch.Options
}

func (f *fakeFetcher) Fetch(_ context.Context, provider, rawURL string, params map[string]string, opts fetch.Options) ([]byte, bool, error) {
	f.lastProvider = provider
	f.lastURL = rawURL
	f.lastParams = params
	f.lastOpts = opts
	if f.err != nil {
		return nil, false, f.err
	}
	return f.payload, false, nil
}

func TestBirdeye_TokenOverview(t *testing.T) {
	ff := &fakeFetcher{payload: []byte(`{
		"success": true,
		"data": {
			"symbol": "BONK",
			"price": 0.0000235,
			"liquidity": 125000.5,
			"holder": 4200,
			"trade5m": 400,
			"trade1h": 3000,
			"v5mUSD": 10000,
			"v1hUSD": 90000,
			"vBuy5mUSD": 7000,
			"vSell5mUSD": 3000
		}
	}`)}

	b := NewBirdeye(ff, "test-key")
	ov, err := b.TokenOverview(context.Background(), "So11111111111111111111111111111111111111112", false)
	require.NoError(t, err)

	require.NotNil(t, ov.Symbol)
	assert.Equal(t, "BONK", *ov.Symbol)
	require.NotNil(t, ov.Price)
	assert.InDelta(t, 0.0000235, *ov.Price, 1e-9)
	assert.InDelta(t, 125000.5, ov.Liquidity, 1e-9)
	assert.Equal(t, 4200, ov.Holders)
	assert.InDelta(t, 400, ov.TxCount5m, 1e-9)
	assert.InDelta(t, 3000, ov.TxCount1h, 1e-9)
	assert.InDelta(t, 7000, ov.BuyVolume5m, 1e-9)
	assert.InDelta(t, 3000, ov.SellVolume5m, 1e-9)

	assert.Equal(t, BirdeyeName, ff.lastProvider)
	assert.Equal(t, "So11111111111111111111111111111111111111112", ff.lastParams["address"])
	assert.Equal(t, "test-key", ff.lastOpts.Header.Get("X-API-KEY"))
}

func TestBirdeye_BypassCachePropagates(t *testing.T) {
	ff := &fakeFetcher{payload: []byte(`{"success":true,"data":{"holder":1}}`)}
	b := NewBirdeye(ff, "")

	_, err := b.TokenOverview(context.Background(), "addr", true)
	require.NoError(t, err)
	assert.True(t, ff.lastOpts.BypassCache)
}

func TestBirdeye_MissingFieldsDefaultToZero(t *testing.T) {
	ff := &fakeFetcher{payload: []byte(`{"success":true,"data":{"holder":10}}`)}
	b := NewBirdeye(ff, "")

	ov, err := b.TokenOverview(context.Background(), "addr", false)
	require.NoError(t, err)
	assert.Nil(t, ov.Symbol)
	assert.Nil(t, ov.Price)
	assert.Zero(t, ov.Liquidity)
	assert.Zero(t, ov.TxCount5m)
}

func TestBirdeye_MalformedResponses(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{not json`},
		{"success false", `{"success":false,"data":{}}`},
		{"null data", `{"success":true,"data":null}`},
		{"missing data", `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBirdeye(&fakeFetcher{payload: []byte(tt.payload)}, "")
			_, err := b.TokenOverview(context.Background(), "addr", false)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestBirdeye_FetchErrorWrapped(t *testing.T) {
	b := NewBirdeye(&fakeFetcher{err: fetch.ErrProviderUnavailable}, "")
	_, err := b.TokenOverview(context.Background(), "addr", false)
	assert.ErrorIs(t, err, fetch.ErrProviderUnavailable)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}
