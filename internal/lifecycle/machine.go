package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/enrich"
	"solana-token-radar/internal/storage"
)

// Machine drives tokens through the Initial -> Active -> Archived lifecycle.
// Archived is absorbing. Threshold comparisons use >= for entering and < for
// leaving the more active state, so ties keep a token active.
//
// Low-activity streaks live in process memory only; a restart resets them and
// the count starts over from the next cycle.
type Machine struct {
	tokens      storage.TokenStore
	scores      storage.ScoreStore
	transitions storage.TransitionStore
	logger      zerolog.Logger
	now         func() time.Time

	mu          sync.Mutex
	lowActivity map[string]int
}

// MachineOption configures Machine.
type MachineOption func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(logger zerolog.Logger) MachineOption {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine creates a lifecycle machine.
func NewMachine(tokens storage.TokenStore, scores storage.ScoreStore, transitions storage.TransitionStore, opts ...MachineOption) *Machine {
	m := &Machine{
		tokens:      tokens,
		scores:      scores,
		transitions: transitions,
		logger:      zerolog.Nop(),
		now:         time.Now,
		lowActivity: make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate decides and applies at most one transition for the token based on
// this cycle's metrics. metrics may be nil only for Initial-state timeout
// checks after a missed cycle; for every other decision the caller must pass
// the metrics the score was computed from. Returns the applied transition or
// nil when the token stays put.
func (m *Machine) Evaluate(ctx context.Context, token *domain.Token, metrics *enrich.Metrics, cfg domain.ScoringConfig) (*domain.StatusTransition, error) {
	switch token.Status {
	case domain.StatusInitial:
		return m.evaluateInitial(ctx, token, metrics, cfg)
	case domain.StatusActive:
		if metrics == nil {
			return nil, nil
		}
		return m.evaluateActive(ctx, token, metrics, cfg)
	case domain.StatusArchived:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown token status %q", token.Status)
	}
}

func (m *Machine) evaluateInitial(ctx context.Context, token *domain.Token, metrics *enrich.Metrics, cfg domain.ScoringConfig) (*domain.StatusTransition, error) {
	nowMs := m.now().UnixMilli()

	if metrics != nil &&
		(metrics.Liquidity >= cfg.MinActiveLiquidity || metrics.TxCount5m >= cfg.MinTxCount) {
		if err := m.tokens.MarkActivated(ctx, token.Address, nowMs, metrics.Symbol); err != nil {
			return nil, fmt.Errorf("mark activated: %w", err)
		}
		tr, err := m.record(ctx, token.Address, domain.StatusInitial, domain.StatusActive, nowMs, domain.ReasonActivationThresholdMet)
		if err != nil {
			return nil, err
		}
		token.Status = domain.StatusActive
		token.ActivatedAt = &nowMs
		if metrics.Symbol != nil {
			token.Symbol = metrics.Symbol
		}
		m.resetStreak(token.Address)
		m.logger.Info().
			Str("token", token.Address).
			Float64("liquidity", metrics.Liquidity).
			Int("tx_count_5m", metrics.TxCount5m).
			Msg("token activated")
		return tr, nil
	}

	timeoutMs := int64(cfg.ArchiveTimeoutHours) * time.Hour.Milliseconds()
	if nowMs-token.CreatedAt >= timeoutMs {
		if err := m.tokens.UpdateStatus(ctx, token.Address, domain.StatusArchived); err != nil {
			return nil, fmt.Errorf("archive token: %w", err)
		}
		tr, err := m.record(ctx, token.Address, domain.StatusInitial, domain.StatusArchived, nowMs, domain.ReasonInitialTimeout)
		if err != nil {
			return nil, err
		}
		token.Status = domain.StatusArchived
		m.logger.Info().Str("token", token.Address).Msg("token archived after initial timeout")
		return tr, nil
	}

	return nil, nil
}

func (m *Machine) evaluateActive(ctx context.Context, token *domain.Token, metrics *enrich.Metrics, cfg domain.ScoringConfig) (*domain.StatusTransition, error) {
	nowMs := m.now().UnixMilli()

	degraded, err := m.scoreBelowForWindow(ctx, token.Address, nowMs, cfg)
	if err != nil {
		return nil, err
	}
	if degraded {
		return m.degrade(ctx, token, nowMs, domain.ReasonLowScore)
	}

	if metrics.TxCount5m < cfg.MinTxCount {
		if m.bumpStreak(token.Address) >= cfg.DegradeChecks {
			return m.degrade(ctx, token, nowMs, domain.ReasonLowActivity)
		}
	} else {
		m.resetStreak(token.Address)
	}

	return nil, nil
}

// scoreBelowForWindow reports whether the smoothed score has stayed below the
// keep-active threshold for at least the degrade window. The below-threshold
// run ends at the latest record; its earliest record's age decides.
//
// The read covers twice the window rather than the full history: scores are
// written every Active poll cycle, far more often than once per window, so a
// run reaching back past the window always has a record in the extra half.
func (m *Machine) scoreBelowForWindow(ctx context.Context, address string, nowMs int64, cfg domain.ScoringConfig) (bool, error) {
	windowMs := int64(cfg.DegradeWindowHours) * time.Hour.Milliseconds()
	records, err := m.scores.GetByTimeRange(ctx, address, nowMs-2*windowMs, nowMs)
	if err != nil {
		return false, fmt.Errorf("load score history: %w", err)
	}
	if len(records) == 0 {
		return false, nil
	}

	var earliestBelow int64 = -1
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Score >= cfg.MinScoreKeepActive {
			break
		}
		earliestBelow = records[i].TimestampMs
	}
	if earliestBelow < 0 {
		return false, nil
	}

	return nowMs-earliestBelow >= windowMs, nil
}

func (m *Machine) degrade(ctx context.Context, token *domain.Token, nowMs int64, reason domain.TransitionReason) (*domain.StatusTransition, error) {
	if err := m.tokens.UpdateStatus(ctx, token.Address, domain.StatusInitial); err != nil {
		return nil, fmt.Errorf("degrade token: %w", err)
	}
	tr, err := m.record(ctx, token.Address, domain.StatusActive, domain.StatusInitial, nowMs, reason)
	if err != nil {
		return nil, err
	}
	token.Status = domain.StatusInitial
	m.resetStreak(token.Address)
	m.logger.Info().
		Str("token", token.Address).
		Str("reason", string(reason)).
		Msg("token degraded")
	return tr, nil
}

func (m *Machine) record(ctx context.Context, address string, from, to domain.Status, nowMs int64, reason domain.TransitionReason) (*domain.StatusTransition, error) {
	tr := &domain.StatusTransition{
		TokenAddress: address,
		FromStatus:   from,
		ToStatus:     to,
		TimestampMs:  nowMs,
		Reason:       reason,
	}
	if err := m.transitions.Insert(ctx, tr); err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}
	return tr, nil
}

func (m *Machine) bumpStreak(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowActivity[address]++
	return m.lowActivity[address]
}

func (m *Machine) resetStreak(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lowActivity, address)
}
