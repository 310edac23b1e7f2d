package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/storage"
)

// DefaultRetentionDays is how long time-series rows are kept before the
// hourly housekeeping job trims them.
const DefaultRetentionDays = 14

// housekeepingSpec runs at the top of every hour.
const housekeepingSpec = "0 * * * *"

// Housekeeper trims old time-series rows on a cron schedule. Entities
// (tokens, pools, transitions) are never deleted.
type Housekeeper struct {
	poolSnaps  storage.PoolSnapshotStore
	tokenSnaps storage.TokenSnapshotStore
	scores     storage.ScoreStore
	retention  time.Duration
	cron       *cron.Cron
	logger     zerolog.Logger
	now        func() time.Time
}

// NewHousekeeper creates a housekeeper keeping retentionDays of history.
func NewHousekeeper(
	poolSnaps storage.PoolSnapshotStore,
	tokenSnaps storage.TokenSnapshotStore,
	scores storage.ScoreStore,
	retentionDays int,
	logger zerolog.Logger,
) *Housekeeper {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Housekeeper{
		poolSnaps:  poolSnaps,
		tokenSnaps: tokenSnaps,
		scores:     scores,
		retention:  time.Duration(retentionDays) * 24 * time.Hour,
		cron:       cron.New(),
		logger:     logger,
		now:        time.Now,
	}
}

// Start schedules the hourly trim job. Call Stop to shut down.
func (h *Housekeeper) Start(ctx context.Context) error {
	_, err := h.cron.AddFunc(housekeepingSpec, func() {
		if err := h.Trim(ctx); err != nil {
			h.logger.Error().Err(err).Msg("housekeeping trim failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule housekeeping: %w", err)
	}
	h.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (h *Housekeeper) Stop() {
	<-h.cron.Stop().Done()
}

// Trim deletes time-series rows older than the retention horizon.
func (h *Housekeeper) Trim(ctx context.Context) error {
	cutoff := h.now().Add(-h.retention).UnixMilli()

	if err := h.poolSnaps.DeleteBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("trim pool snapshots: %w", err)
	}
	if err := h.tokenSnaps.DeleteBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("trim token snapshots: %w", err)
	}
	if err := h.scores.DeleteBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("trim score records: %w", err)
	}

	h.logger.Info().Int64("cutoff_ms", cutoff).Msg("time-series retention applied")
	return nil
}
