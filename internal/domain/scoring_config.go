package domain

import (
	"errors"
	"fmt"
)

// ErrConfigInvalid is returned when a scoring config fails validation.
// The previously stored config remains in effect.
var ErrConfigInvalid = errors.New("invalid scoring config")

// ScoringConfig holds the operator-editable pipeline parameters.
// Corresponds to the scoring_config table in PostgreSQL (single row).
// The pipeline takes a value snapshot at each cycle start; workers never
// mutate it. Writes are last-write-wins.
type ScoringConfig struct {
	Weights Weights
	Alpha   float64 // EWMA smoothing factor, 0 < α ≤ 1

	// Activation thresholds (Initial → Active, OR semantics).
	MinActiveLiquidity float64
	MinTxCount         int

	// Degradation thresholds (Active → Initial).
	MinScoreKeepActive float64
	DegradeWindowHours int // minimum sustained low-score duration
	DegradeChecks      int // consecutive low-activity poll cycles

	// Archival (Initial → Archived).
	ArchiveTimeoutHours int

	// Polling intervals per lifecycle state, in seconds. Zero disables
	// polling for that state.
	InitialPollSec  int
	ActivePollSec   int
	ArchivedPollSec int

	// Downstream bot-config export.
	ExportMinScore float64
	ExportTopN     int
}

// DefaultScoringConfig returns the config used until an operator edits it.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{
			TxAccel:            0.25,
			VolMomentum:        0.25,
			HolderGrowth:       0.25,
			OrderflowImbalance: 0.25,
		},
		Alpha:               0.3,
		MinActiveLiquidity:  1000,
		MinTxCount:          300,
		MinScoreKeepActive:  0.1,
		DegradeWindowHours:  6,
		DegradeChecks:       10,
		ArchiveTimeoutHours: 24,
		InitialPollSec:      60,
		ActivePollSec:       300,
		ArchivedPollSec:     0,
		ExportMinScore:      0,
		ExportTopN:          100,
	}
}

// Validate checks the config invariants. Returns ErrConfigInvalid (wrapped)
// on the first violation; a config failing validation must never be stored.
func (c ScoringConfig) Validate() error {
	for name, w := range map[string]float64{
		"tx_accel":            c.Weights.TxAccel,
		"vol_momentum":        c.Weights.VolMomentum,
		"holder_growth":       c.Weights.HolderGrowth,
		"orderflow_imbalance": c.Weights.OrderflowImbalance,
	} {
		if w < 0 {
			return fmt.Errorf("%w: weight %s is negative", ErrConfigInvalid, name)
		}
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v outside (0, 1]", ErrConfigInvalid, c.Alpha)
	}
	if c.MinActiveLiquidity < 0 {
		return fmt.Errorf("%w: min_active_liquidity is negative", ErrConfigInvalid)
	}
	if c.MinTxCount < 0 {
		return fmt.Errorf("%w: min_tx_count is negative", ErrConfigInvalid)
	}
	if c.MinScoreKeepActive < 0 {
		return fmt.Errorf("%w: min_score_keep_active is negative", ErrConfigInvalid)
	}
	if c.DegradeWindowHours < 1 {
		return fmt.Errorf("%w: degrade_window_hours below 1", ErrConfigInvalid)
	}
	if c.DegradeChecks < 1 {
		return fmt.Errorf("%w: degrade_checks below 1", ErrConfigInvalid)
	}
	if c.ArchiveTimeoutHours < 1 {
		return fmt.Errorf("%w: archive_timeout_hours below 1", ErrConfigInvalid)
	}
	if c.InitialPollSec < 0 || c.ActivePollSec < 0 || c.ArchivedPollSec < 0 {
		return fmt.Errorf("%w: poll interval is negative", ErrConfigInvalid)
	}
	if c.ExportTopN < 0 {
		return fmt.Errorf("%w: export_top_n is negative", ErrConfigInvalid)
	}
	return nil
}
