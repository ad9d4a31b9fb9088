package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/avenir/tender-board/internal/models"
)

// ConfigLoader fetches the persisted sync configuration.
type ConfigLoader func(ctx context.Context) (models.SyncConfig, error)

// SourceFactory builds a row source from configuration. It returns an error
// wrapping ErrNotConfigured when the identifiers for the configured source
// kind are incomplete.
type SourceFactory func(ctx context.Context, cfg models.SyncConfig) (RowSource, error)

// Scheduler re-triggers the pipeline on a fixed interval and optionally once
// at boot. Runs already serialized by the pipeline's in-flight guard.
type Scheduler struct {
	pipeline    *Pipeline
	loadConfig  ConfigLoader
	buildSource SourceFactory
	interval    time.Duration
}

func NewScheduler(pipeline *Pipeline, loadConfig ConfigLoader, buildSource SourceFactory, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Scheduler{
		pipeline:    pipeline,
		loadConfig:  loadConfig,
		buildSource: buildSource,
		interval:    interval,
	}
}

// BootSync runs a single sync at process startup if and only if the source
// configuration is already complete. An unconfigured source is a logged
// no-op, not an error.
func (s *Scheduler) BootSync(ctx context.Context) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		log.Printf("boot sync skipped: failed to load sync config: %v", err)
		return
	}

	src, err := s.buildSource(ctx, cfg)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			log.Print("boot sync skipped: sync source not configured yet")
		} else {
			log.Printf("boot sync skipped: %v", err)
		}
		return
	}

	if _, err := s.pipeline.Sync(ctx, cfg, src); err != nil {
		log.Printf("boot sync failed: %v", err)
	}
}

// Start runs the periodic loop until the context is cancelled. The interval
// is re-read from persisted configuration on each tick so dashboard edits
// take effect without a restart.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cfg, err := s.loadConfig(ctx)
		if err != nil {
			log.Printf("scheduled sync skipped: failed to load sync config: %v", err)
			continue
		}
		if mins := cfg.IntervalMinutes; mins > 0 && time.Duration(mins)*time.Minute != s.interval {
			s.interval = time.Duration(mins) * time.Minute
			ticker.Reset(s.interval)
		}

		src, err := s.buildSource(ctx, cfg)
		if err != nil {
			if !errors.Is(err, ErrNotConfigured) {
				log.Printf("scheduled sync skipped: %v", err)
			}
			continue
		}

		if _, err := s.pipeline.Sync(ctx, cfg, src); err != nil && !errors.Is(err, ErrSyncInFlight) {
			log.Printf("scheduled sync failed: %v", err)
		}
	}
}
