package models

import (
	"time"

	"github.com/google/uuid"
)

// Source kinds accepted by the sync configuration.
const (
	SourceSheets   = "sheets"   // Google Sheets
	SourceGraph    = "graph"    // Microsoft Graph Excel workbook
	SourceWorkbook = "workbook" // local XLSX file
)

// SyncConfig is the single persisted sync-configuration document: source
// identifiers, field-mapping overrides, scheduling, and observability
// timestamps.
type SyncConfig struct {
	SourceKind      string              `json:"source_kind"`
	SpreadsheetID   string              `json:"spreadsheet_id"`
	SheetName       string              `json:"sheet_name"`
	DriveID         string              `json:"drive_id"`
	FileID          string              `json:"file_id"`
	WorksheetName   string              `json:"worksheet_name"`
	WorkbookPath    string              `json:"workbook_path"`
	HeaderOffset    int                 `json:"header_offset"` // zero-based index of the header row
	YearHint        string              `json:"year_hint"`
	ColumnOverrides map[string][]string `json:"column_overrides"`
	IntervalMinutes int                 `json:"interval_minutes"`
	LastSyncedAt    *time.Time          `json:"last_synced_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// SyncRun records the outcome of one sync for observability.
type SyncRun struct {
	ID          uuid.UUID  `json:"id"`
	SourceName  string     `json:"source_name"`
	Status      string     `json:"status"` // completed, failed
	RowsFetched int        `json:"rows_fetched"`
	RowsSynced  int        `json:"rows_synced"`
	RowsSkipped int        `json:"rows_skipped"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}
