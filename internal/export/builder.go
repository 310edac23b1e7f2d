package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// Entry is one exported token in the bot-config document.
type Entry struct {
	Address string   `toml:"address"`
	Symbol  string   `toml:"symbol,omitempty"`
	Score   float64  `toml:"score"`
	Pools   []string `toml:"pools"`
}

// Document is the bot-config consumed by the downstream trading client.
type Document struct {
	GeneratedAtMs int64   `toml:"generated_at_ms"`
	MinScore      float64 `toml:"min_score"`
	Tokens        []Entry `toml:"tokens"`
}

// Builder derives the bot-config from persisted state. It only reads;
// building a document never mutates the pipeline's data.
type Builder struct {
	tokens   storage.TokenStore
	pools    storage.PoolStore
	cfgStore storage.ScoringConfigStore
	logger   zerolog.Logger
	now      func() time.Time
}

// BuilderOption configures Builder.
type BuilderOption func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(logger zerolog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a bot-config builder.
func NewBuilder(tokens storage.TokenStore, pools storage.PoolStore, cfgStore storage.ScoringConfigStore, opts ...BuilderOption) *Builder {
	b := &Builder{
		tokens:   tokens,
		pools:    pools,
		cfgStore: cfgStore,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build selects Active tokens scoring at or above the configured minimum,
// sorted by score descending, capped at the configured top N.
func (b *Builder) Build(ctx context.Context) (*Document, error) {
	cfg, err := b.cfgStore.Get(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("read scoring config: %w", err)
		}
		cfg = domain.DefaultScoringConfig()
	}

	active, err := b.tokens.ListByStatus(ctx, domain.StatusActive, 0)
	if err != nil {
		return nil, fmt.Errorf("list active tokens: %w", err)
	}

	selected := make([]*domain.Token, 0, len(active))
	for _, t := range active {
		if t.LastScore == nil || *t.LastScore < cfg.ExportMinScore {
			continue
		}
		selected = append(selected, t)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return *selected[i].LastScore > *selected[j].LastScore
	})
	if cfg.ExportTopN > 0 && len(selected) > cfg.ExportTopN {
		selected = selected[:cfg.ExportTopN]
	}

	doc := &Document{
		GeneratedAtMs: b.now().UnixMilli(),
		MinScore:      cfg.ExportMinScore,
		Tokens:        make([]Entry, 0, len(selected)),
	}
	for _, t := range selected {
		entry := Entry{
			Address: t.Address,
			Score:   *t.LastScore,
		}
		if t.Symbol != nil {
			entry.Symbol = *t.Symbol
		}
		tokenPools, err := b.pools.ListByToken(ctx, t.Address)
		if err != nil {
			return nil, fmt.Errorf("list pools for %s: %w", t.Address, err)
		}
		for _, p := range tokenPools {
			if p.Active {
				entry.Pools = append(entry.Pools, p.PoolAddress)
			}
		}
		doc.Tokens = append(doc.Tokens, entry)
	}

	b.logger.Info().
		Int("active", len(active)).
		Int("exported", len(doc.Tokens)).
		Msg("bot config built")
	return doc, nil
}

// WriteTOML builds the document and serializes it to w.
func (b *Builder) WriteTOML(ctx context.Context, w io.Writer) error {
	doc, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode bot config: %w", err)
	}
	return nil
}
