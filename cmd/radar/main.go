package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/enrich"
	"solana-token-radar/internal/fetch"
	"solana-token-radar/internal/ingestion"
	"solana-token-radar/internal/lifecycle"
	"solana-token-radar/internal/providers"
	"solana-token-radar/internal/scheduler"
	"solana-token-radar/internal/scoring"
	"solana-token-radar/internal/storage"
	chstore "solana-token-radar/internal/storage/clickhouse"
	"solana-token-radar/internal/storage/memory"
	"solana-token-radar/internal/storage/migrations"
	pgstore "solana-token-radar/internal/storage/postgres"
)

type stores struct {
	tokens      storage.TokenStore
	pools       storage.PoolStore
	poolSnaps   storage.PoolSnapshotStore
	tokenSnaps  storage.TokenSnapshotStore
	scores      storage.ScoreStore
	transitions storage.TransitionStore
	scoringCfg  storage.ScoringConfigStore
	close       func()
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (env-only when empty)")
	envFile := flag.String("env-file", ".env", "Path to dotenv file (ignored when missing)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	// Secrets may come from a local dotenv file; absence is fine.
	_ = godotenv.Load(*envFile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.General)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}
	defer st.close()

	fetchClient := fetch.NewClient(
		fetch.WithCacheTTL(time.Duration(cfg.Fetch.CacheTTLSec)*time.Second),
		fetch.WithMaxConcurrent(cfg.Fetch.MaxConcurrent),
		fetch.WithMaxRetries(cfg.Fetch.MaxRetries),
		fetch.WithLogger(logger.With().Str("component", "fetch").Logger()),
	)

	var birdeyeOpts []providers.BirdeyeOption
	if cfg.Providers.BirdeyeBaseURL != "" {
		birdeyeOpts = append(birdeyeOpts, providers.WithBirdeyeBaseURL(cfg.Providers.BirdeyeBaseURL))
	}
	birdeye := providers.NewBirdeye(fetchClient, cfg.Providers.BirdeyeAPIKey, birdeyeOpts...)

	var dsOpts []providers.DexScreenerOption
	if cfg.Providers.DexScreenerBaseURL != "" {
		dsOpts = append(dsOpts, providers.WithDexScreenerBaseURL(cfg.Providers.DexScreenerBaseURL))
	}
	dexscreener := providers.NewDexScreener(fetchClient, cfg.Providers.ExcludedDexIDs, dsOpts...)

	aggregator := enrich.NewAggregator(birdeye, dexscreener, st.pools, st.poolSnaps, st.tokenSnaps,
		enrich.WithLogger(logger.With().Str("component", "enrich").Logger()))
	engine := scoring.NewEngine(st.scores, st.tokens, logger.With().Str("component", "scoring").Logger())
	machine := lifecycle.NewMachine(st.tokens, st.scores, st.transitions,
		lifecycle.WithLogger(logger.With().Str("component", "lifecycle").Logger()))

	sched := scheduler.New(st.tokens, st.scoringCfg, aggregator, engine, machine,
		cfg.Fetch.MaxConcurrent, logger.With().Str("component", "scheduler").Logger())

	housekeeper := scheduler.NewHousekeeper(st.poolSnaps, st.tokenSnaps, st.scores,
		cfg.Retention.Days, logger.With().Str("component", "housekeeping").Logger())
	if err := housekeeper.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("housekeeping start failed")
	}
	defer housekeeper.Stop()

	listener := ingestion.NewListener(st.tokens, st.pools,
		ingestion.WithFeedURL(cfg.Feed.WSURL),
		ingestion.WithLogger(logger.With().Str("component", "ingestion").Logger()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("listener stopped")
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	logger.Info().Msg("radar pipeline started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	case <-ctx.Done():
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info().Msg("shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Error().Msg("graceful shutdown timed out, forcing exit")
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func newLogger(cfg config.GeneralConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func openStores(ctx context.Context, cfg *config.Config, useMemory bool, logger zerolog.Logger) (*stores, error) {
	if useMemory {
		logger.Warn().Msg("using in-memory storage, state will not survive restarts")
		return &stores{
			tokens:      memory.NewTokenStore(),
			pools:       memory.NewPoolStore(),
			poolSnaps:   memory.NewPoolSnapshotStore(),
			tokenSnaps:  memory.NewTokenSnapshotStore(),
			scores:      memory.NewScoreStore(),
			transitions: memory.NewTransitionStore(),
			scoringCfg:  memory.NewScoringConfigStore(),
			close:       func() {},
		}, nil
	}

	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	return &stores{
		tokens:      pgstore.NewTokenStore(pool),
		pools:       pgstore.NewPoolStore(pool),
		poolSnaps:   chstore.NewPoolSnapshotStore(conn),
		tokenSnaps:  chstore.NewTokenSnapshotStore(conn),
		scores:      chstore.NewScoreStore(conn),
		transitions: pgstore.NewTransitionStore(pool),
		scoringCfg:  pgstore.NewScoringConfigStore(pool),
		close: func() {
			pool.Close()
			conn.Close()
		},
	}, nil
}
