package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avenir/tender-board/internal/models"
)

// GetSyncConfig loads the single persisted sync configuration row.
func (s *Store) GetSyncConfig(ctx context.Context) (models.SyncConfig, error) {
	var cfg models.SyncConfig
	var overridesRaw []byte

	err := s.pool.QueryRow(ctx, `
		SELECT source_kind, spreadsheet_id, sheet_name,
		       drive_id, file_id, worksheet_name, workbook_path,
		       header_offset, year_hint, column_overrides,
		       interval_minutes, last_synced_at, updated_at
		FROM sync_config WHERE id = 1
	`).Scan(
		&cfg.SourceKind, &cfg.SpreadsheetID, &cfg.SheetName,
		&cfg.DriveID, &cfg.FileID, &cfg.WorksheetName, &cfg.WorkbookPath,
		&cfg.HeaderOffset, &cfg.YearHint, &overridesRaw,
		&cfg.IntervalMinutes, &cfg.LastSyncedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return cfg, fmt.Errorf("failed to load sync config: %w", err)
	}

	if len(overridesRaw) > 0 {
		if err := json.Unmarshal(overridesRaw, &cfg.ColumnOverrides); err != nil {
			return cfg, fmt.Errorf("failed to decode column overrides: %w", err)
		}
	}
	return cfg, nil
}

// SaveSyncConfig overwrites the source identifiers and mapping overrides.
// LastSyncedAt is owned by the pipeline and deliberately not touched here.
func (s *Store) SaveSyncConfig(ctx context.Context, cfg models.SyncConfig) error {
	overrides, err := json.Marshal(cfg.ColumnOverrides)
	if err != nil {
		return fmt.Errorf("failed to encode column overrides: %w", err)
	}
	if cfg.ColumnOverrides == nil {
		overrides = []byte("{}")
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE sync_config SET
			source_kind = $1, spreadsheet_id = $2, sheet_name = $3,
			drive_id = $4, file_id = $5, worksheet_name = $6, workbook_path = $7,
			header_offset = $8, year_hint = $9, column_overrides = $10,
			interval_minutes = $11, updated_at = NOW()
		WHERE id = 1
	`,
		cfg.SourceKind, cfg.SpreadsheetID, cfg.SheetName,
		cfg.DriveID, cfg.FileID, cfg.WorksheetName, cfg.WorkbookPath,
		cfg.HeaderOffset, cfg.YearHint, overrides,
		cfg.IntervalMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to save sync config: %w", err)
	}
	return nil
}

func (s *Store) SetLastSyncedAt(ctx context.Context, at time.Time) error {
	_, err := s.pool.Exec(ctx, "UPDATE sync_config SET last_synced_at = $1 WHERE id = 1", at)
	if err != nil {
		return fmt.Errorf("failed to set last synced at: %w", err)
	}
	return nil
}

func (s *Store) RecordSyncRun(ctx context.Context, run models.SyncRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_runs (id, source_name, status, rows_fetched, rows_synced, rows_skipped, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.SourceName, run.Status, run.RowsFetched, run.RowsSynced, run.RowsSkipped, run.Error, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source_name, status, rows_fetched, rows_synced, rows_skipped, error, started_at, completed_at
		FROM sync_runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		if err := rows.Scan(&r.ID, &r.SourceName, &r.Status, &r.RowsFetched, &r.RowsSynced, &r.RowsSkipped, &r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
