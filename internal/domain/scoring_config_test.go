package domain

import (
	"errors"
	"testing"
)

func TestDefaultScoringConfigIsValid(t *testing.T) {
	if err := DefaultScoringConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestScoringConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ScoringConfig)
		valid  bool
	}{
		{"negative weight", func(c *ScoringConfig) { c.Weights.TxAccel = -0.1 }, false},
		{"zero weights allowed", func(c *ScoringConfig) { c.Weights = Weights{} }, true},
		{"alpha zero", func(c *ScoringConfig) { c.Alpha = 0 }, false},
		{"alpha above one", func(c *ScoringConfig) { c.Alpha = 1.01 }, false},
		{"alpha one allowed", func(c *ScoringConfig) { c.Alpha = 1 }, true},
		{"negative liquidity threshold", func(c *ScoringConfig) { c.MinActiveLiquidity = -1 }, false},
		{"negative tx threshold", func(c *ScoringConfig) { c.MinTxCount = -1 }, false},
		{"negative keep-active score", func(c *ScoringConfig) { c.MinScoreKeepActive = -0.5 }, false},
		{"degrade window zero", func(c *ScoringConfig) { c.DegradeWindowHours = 0 }, false},
		{"degrade checks zero", func(c *ScoringConfig) { c.DegradeChecks = 0 }, false},
		{"archive timeout zero", func(c *ScoringConfig) { c.ArchiveTimeoutHours = 0 }, false},
		{"negative poll interval", func(c *ScoringConfig) { c.ActivePollSec = -1 }, false},
		{"zero poll interval disables polling", func(c *ScoringConfig) { c.ArchivedPollSec = 0 }, true},
		{"negative export top n", func(c *ScoringConfig) { c.ExportTopN = -1 }, false},
		{"zero export top n allowed", func(c *ScoringConfig) { c.ExportTopN = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultScoringConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}
