package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/export"
	pgstore "solana-token-radar/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (env-only when empty)")
	envFile := flag.String("env-file", ".env", "Path to dotenv file (ignored when missing)")
	output := flag.String("output", "", "Output file path (overrides config, - or empty for stdout)")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	if err := run(*configPath, *output); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, output string) error {
	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	builder := export.NewBuilder(
		pgstore.NewTokenStore(pool),
		pgstore.NewPoolStore(pool),
		pgstore.NewScoringConfigStore(pool),
	)

	target := output
	if target == "" {
		target = cfg.Export.OutputPath
	}

	var w io.Writer = os.Stdout
	if target != "" && target != "-" {
		f, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return builder.WriteTOML(ctx, w)
}
