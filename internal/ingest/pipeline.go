package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avenir/tender-board/internal/models"
)

var (
	// ErrNotConfigured signals a missing or incomplete sync source
	// configuration. Reported to the caller, never retried automatically.
	ErrNotConfigured = errors.New("sync source is not configured")

	// ErrSyncInFlight is returned when a sync is triggered while a previous
	// run has not finished. Overlapping full-replace runs are unsafe, so they
	// are serialized by rejection rather than queueing.
	ErrSyncInFlight = errors.New("a sync is already in progress")
)

// RowSource delivers the full raw cell range of the external spreadsheet.
type RowSource interface {
	Name() string
	Rows(ctx context.Context) ([][]any, error)
}

// Store is the persistence surface the orchestrator needs.
type Store interface {
	RefNos(ctx context.Context) ([]string, error)
	ReplaceOpportunities(ctx context.Context, opps []models.Opportunity) error
	SetLastSyncedAt(ctx context.Context, at time.Time) error
	RecordSyncRun(ctx context.Context, run models.SyncRun) error
}

// Notifier is told about tenders that appeared for the first time in a sync.
// Implementations are best-effort and must not fail the sync.
type Notifier interface {
	NotifyOnSync(ctx context.Context, newTenders []models.Opportunity)
}

// Result summarizes one completed sync run.
type Result struct {
	SyncedCount  int `json:"synced_count"`
	SkippedCount int `json:"skipped_count"`
	FetchedRows  int `json:"fetched_rows"`
}

// Pipeline drives one sync: fetch rows, transform, replace the stored
// opportunity collection, then notify about newcomers.
type Pipeline struct {
	store    Store
	notifier Notifier

	mu sync.Mutex
}

func NewPipeline(store Store, notifier Notifier) *Pipeline {
	return &Pipeline{store: store, notifier: notifier}
}

// Sync runs one full-replace sync. Only one run may be in flight at a time;
// concurrent triggers get ErrSyncInFlight. The replace itself happens in a
// single store transaction, so dashboard readers never observe a half-empty
// collection and a mid-insert failure rolls back to the previous dataset.
func (p *Pipeline) Sync(ctx context.Context, cfg models.SyncConfig, src RowSource) (*Result, error) {
	if src == nil {
		return nil, ErrNotConfigured
	}
	if !p.mu.TryLock() {
		return nil, ErrSyncInFlight
	}
	defer p.mu.Unlock()

	started := time.Now().UTC()
	run := models.SyncRun{
		ID:         uuid.New(),
		SourceName: src.Name(),
		StartedAt:  started,
	}

	result, newOnes, err := p.runLocked(ctx, cfg, src, started)
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	} else {
		run.Status = "completed"
		run.RowsFetched = result.FetchedRows
		run.RowsSynced = result.SyncedCount
		run.RowsSkipped = result.SkippedCount
	}
	if recErr := p.store.RecordSyncRun(ctx, run); recErr != nil {
		log.Printf("failed to record sync run: %v", recErr)
	}
	if err != nil {
		return nil, err
	}

	if p.notifier != nil && len(newOnes) > 0 {
		p.notifier.NotifyOnSync(ctx, newOnes)
	}

	return result, nil
}

func (p *Pipeline) runLocked(ctx context.Context, cfg models.SyncConfig, src RowSource, started time.Time) (*Result, []models.Opportunity, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch from %s failed: %w", src.Name(), err)
	}
	if cfg.HeaderOffset < 0 || cfg.HeaderOffset >= len(rows) {
		return nil, nil, fmt.Errorf("header offset %d out of range for %d fetched rows", cfg.HeaderOffset, len(rows))
	}

	headerRow := rows[cfg.HeaderOffset]
	headers := make([]string, len(headerRow))
	for i, cell := range headerRow {
		headers[i] = stringifyCell(cell)
	}

	mapping, err := DefaultMapping()
	if err != nil {
		return nil, nil, err
	}
	cols := ResolveColumns(headers, mapping.WithOverrides(cfg.ColumnOverrides))

	prevRefs, err := p.store.RefNos(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load existing ref nos: %w", err)
	}
	known := make(map[string]struct{}, len(prevRefs))
	for _, r := range prevRefs {
		known[r] = struct{}{}
	}

	dataRows := rows[cfg.HeaderOffset+1:]
	opps := make([]models.Opportunity, 0, len(dataRows))
	skipped := 0
	for _, row := range dataRows {
		opp := TransformRow(headers, row, cols, cfg.YearHint, started)
		if opp == nil {
			skipped++
			continue
		}
		opps = append(opps, *opp)
	}

	if err := p.store.ReplaceOpportunities(ctx, opps); err != nil {
		return nil, nil, fmt.Errorf("failed to replace opportunities: %w", err)
	}
	if err := p.store.SetLastSyncedAt(ctx, time.Now().UTC()); err != nil {
		log.Printf("failed to update last-synced timestamp: %v", err)
	}

	var newOnes []models.Opportunity
	for _, opp := range opps {
		if opp.RefNo == "" {
			continue
		}
		if _, seen := known[opp.RefNo]; !seen {
			newOnes = append(newOnes, opp)
		}
	}

	log.Printf("sync from %s: %d rows fetched, %d synced, %d skipped, %d new",
		src.Name(), len(dataRows), len(opps), skipped, len(newOnes))

	return &Result{
		SyncedCount:  len(opps),
		SkippedCount: skipped,
		FetchedRows:  len(dataRows),
	}, newOnes, nil
}
