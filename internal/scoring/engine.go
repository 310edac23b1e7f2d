package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/enrich"
	"solana-token-radar/internal/storage"
)

// ComputeComponents derives the four momentum components from one cycle's
// metrics. Every undefined ratio (zero denominator, no holder history)
// evaluates to 0 rather than an error.
func ComputeComponents(m *enrich.Metrics) domain.Components {
	var c domain.Components

	if m.TxCount1h > 0 {
		ratePerMin5m := float64(m.TxCount5m) / 5
		ratePerMin1h := float64(m.TxCount1h) / 60
		c.TxAccel = ratePerMin5m / ratePerMin1h
	}

	if m.Volume1h > 0 {
		c.VolMomentum = m.Volume5m / (m.Volume1h / 12)
	}

	if m.Holders1hAgo != nil && *m.Holders1hAgo > 0 {
		delta := float64(m.Holders - *m.Holders1hAgo)
		arg := 1 + delta/float64(*m.Holders1hAgo)
		if arg > 0 {
			c.HolderGrowth = math.Log(arg)
		}
	}

	if denom := m.BuyVolume5m + m.SellVolume5m; denom > 0 {
		c.OrderflowImbalance = (m.BuyVolume5m - m.SellVolume5m) / denom
	}

	return c
}

// Composite is the weighted sum of components. Weights need not sum to 1.
func Composite(c domain.Components, w domain.Weights) float64 {
	return w.TxAccel*c.TxAccel +
		w.VolMomentum*c.VolMomentum +
		w.HolderGrowth*c.HolderGrowth +
		w.OrderflowImbalance*c.OrderflowImbalance
}

// Smooth applies EWMA over the previous smoothed value. A nil previous value
// means this is the token's first score and the raw value passes through.
func Smooth(raw float64, prev *float64, alpha float64) float64 {
	if prev == nil {
		return raw
	}
	return alpha*raw + (1-alpha)*(*prev)
}

// Engine computes and persists composite momentum scores. It holds no
// per-token state between calls; the previous smoothed value is read from
// the token row, which keeps scoring restart-safe.
type Engine struct {
	scores storage.ScoreStore
	tokens storage.TokenStore
	logger zerolog.Logger
}

// NewEngine creates a scoring engine.
func NewEngine(scores storage.ScoreStore, tokens storage.TokenStore, logger zerolog.Logger) *Engine {
	return &Engine{scores: scores, tokens: tokens, logger: logger}
}

// Score computes the smoothed composite for one cycle, persists the record
// and updates the token's denormalized last-score fields.
func (e *Engine) Score(ctx context.Context, token *domain.Token, m *enrich.Metrics, cfg domain.ScoringConfig) (*domain.ScoreRecord, error) {
	components := ComputeComponents(m)
	raw := Composite(components, cfg.Weights)
	smoothed := Smooth(raw, token.LastScore, cfg.Alpha)

	record := &domain.ScoreRecord{
		TokenAddress: token.Address,
		TimestampMs:  m.TimestampMs,
		Score:        smoothed,
		RawScore:     raw,
		Components:   components,
		Weights:      cfg.Weights,
	}

	if err := e.scores.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("insert score record: %w", err)
	}
	if err := e.tokens.UpdateLastScore(ctx, token.Address, smoothed, m.TimestampMs); err != nil {
		return nil, fmt.Errorf("update last score: %w", err)
	}

	// Keep the in-memory token row consistent for downstream evaluation.
	token.LastScore = &record.Score
	token.LastScoredAt = &record.TimestampMs

	e.logger.Debug().
		Str("token", token.Address).
		Float64("raw", raw).
		Float64("smoothed", smoothed).
		Msg("score computed")

	return record, nil
}
