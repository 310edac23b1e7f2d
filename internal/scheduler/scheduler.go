package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/enrich"
	"solana-token-radar/internal/storage"
)

// disabledRecheck is how often a disabled state loop re-reads the config to
// see whether its interval was turned back on.
const disabledRecheck = time.Minute

// Collector assembles one cycle's metrics for a token.
type Collector interface {
	Collect(ctx context.Context, token *domain.Token, bypassCache bool) (*enrich.Metrics, error)
}

// Scorer computes and persists a token's score for a cycle.
type Scorer interface {
	Score(ctx context.Context, token *domain.Token, m *enrich.Metrics, cfg domain.ScoringConfig) (*domain.ScoreRecord, error)
}

// Evaluator decides and applies lifecycle transitions.
type Evaluator interface {
	Evaluate(ctx context.Context, token *domain.Token, m *enrich.Metrics, cfg domain.ScoringConfig) (*domain.StatusTransition, error)
}

// Scheduler drives one polling loop per lifecycle state. Loops run
// independently of each other; a loop never overlaps with its own previous
// cycle because the next tick is armed only after the cycle returns.
type Scheduler struct {
	tokens    storage.TokenStore
	cfgStore  storage.ScoringConfigStore
	collector Collector
	scorer    Scorer
	evaluator Evaluator
	workers   pond.Pool
	logger    zerolog.Logger
}

// New creates a scheduler. maxWorkers bounds per-cycle token fan-out and
// should match the fetch client's concurrency limit.
func New(
	tokens storage.TokenStore,
	cfgStore storage.ScoringConfigStore,
	collector Collector,
	scorer Scorer,
	evaluator Evaluator,
	maxWorkers int,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		tokens:    tokens,
		cfgStore:  cfgStore,
		collector: collector,
		scorer:    scorer,
		evaluator: evaluator,
		workers:   pond.NewPool(maxWorkers),
		logger:    logger,
	}
}

// Run starts the per-state loops and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, status := range []domain.Status{domain.StatusInitial, domain.StatusActive, domain.StatusArchived} {
		wg.Add(1)
		go func(st domain.Status) {
			defer wg.Done()
			s.runStateLoop(ctx, st)
		}(status)
	}
	wg.Wait()
	s.workers.StopAndWait()
}

func (s *Scheduler) runStateLoop(ctx context.Context, status domain.Status) {
	for {
		cfg := s.config(ctx)
		interval := pollInterval(cfg, status)
		if interval <= 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(disabledRecheck):
			}
			continue
		}

		s.RunCycle(ctx, status, cfg)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// RunCycle processes every token currently in the given state once. Each
// token's fetch-score-transition sequence runs as one unit; cancellation
// abandons units that have not started and lets running units finish.
func (s *Scheduler) RunCycle(ctx context.Context, status domain.Status, cfg domain.ScoringConfig) {
	runID := uuid.NewString()
	logger := s.logger.With().
		Str("run_id", runID).
		Str("state", string(status)).
		Logger()

	tokens, err := s.tokens.ListByStatus(ctx, status, 0)
	if err != nil {
		logger.Error().Err(err).Msg("list tokens failed, skipping cycle")
		return
	}
	if len(tokens) == 0 {
		return
	}

	started := time.Now()
	group := s.workers.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, token := range tokens {
		token := token
		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			s.processToken(groupCtx, token, cfg, logger)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.Error().Err(err).Msg("cycle group failed")
	}

	logger.Debug().
		Int("tokens", len(tokens)).
		Dur("elapsed", time.Since(started)).
		Msg("cycle finished")
}

// processToken runs aggregate -> score -> evaluate for one token. Failures
// are contained here; one token's error never aborts the cycle.
func (s *Scheduler) processToken(ctx context.Context, token *domain.Token, cfg domain.ScoringConfig, logger zerolog.Logger) {
	// Activation decisions need fresh figures, so Initial-state cycles
	// bypass the fetch cache.
	bypassCache := token.Status == domain.StatusInitial

	metrics, err := s.collector.Collect(ctx, token, bypassCache)
	if err != nil {
		logger.Warn().Str("token", token.Address).Err(err).Msg("enrichment failed")
		if !errors.Is(err, enrich.ErrMissedCycle) || token.Status != domain.StatusInitial {
			return
		}
		// Initial tokens still age toward the archive timeout.
		metrics = nil
	}

	if token.Status == domain.StatusActive && metrics != nil {
		if _, err := s.scorer.Score(ctx, token, metrics, cfg); err != nil {
			logger.Warn().Str("token", token.Address).Err(err).Msg("scoring failed")
			return
		}
	}

	tr, err := s.evaluator.Evaluate(ctx, token, metrics, cfg)
	if err != nil {
		logger.Warn().Str("token", token.Address).Err(err).Msg("transition evaluation failed")
		return
	}
	if tr != nil {
		logger.Info().
			Str("token", token.Address).
			Str("from", string(tr.FromStatus)).
			Str("to", string(tr.ToStatus)).
			Str("reason", string(tr.Reason)).
			Msg("transition applied")
	}
}

// config re-reads the scoring config; a missing row falls back to defaults so
// a fresh deployment runs without operator setup.
func (s *Scheduler) config(ctx context.Context) domain.ScoringConfig {
	cfg, err := s.cfgStore.Get(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("config read failed, using defaults")
		}
		return domain.DefaultScoringConfig()
	}
	return cfg
}

func pollInterval(cfg domain.ScoringConfig, status domain.Status) time.Duration {
	switch status {
	case domain.StatusInitial:
		return time.Duration(cfg.InitialPollSec) * time.Second
	case domain.StatusActive:
		return time.Duration(cfg.ActivePollSec) * time.Second
	case domain.StatusArchived:
		return time.Duration(cfg.ArchivedPollSec) * time.Second
	default:
		return 0
	}
}
