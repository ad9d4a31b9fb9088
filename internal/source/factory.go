package source

import (
	"context"
	"fmt"

	"github.com/avenir/tender-board/internal/ingest"
	"github.com/avenir/tender-board/internal/models"
)

// Factory builds row sources from the persisted sync configuration, holding
// the process-level credentials the configuration rows do not carry.
type Factory struct {
	GoogleCredentialsFile string
	Graph                 GraphCredentials
}

// FromConfig validates the configuration for its source kind and returns the
// matching source. Incomplete configurations yield an error wrapping
// ingest.ErrNotConfigured so callers can tell "not set up yet" apart from
// real failures.
func (f *Factory) FromConfig(ctx context.Context, cfg models.SyncConfig) (ingest.RowSource, error) {
	switch cfg.SourceKind {
	case models.SourceSheets:
		if cfg.SpreadsheetID == "" || cfg.SheetName == "" {
			return nil, fmt.Errorf("%w: spreadsheet id and sheet name are required", ingest.ErrNotConfigured)
		}
		if f.GoogleCredentialsFile == "" {
			return nil, fmt.Errorf("%w: google credentials file is not set", ingest.ErrNotConfigured)
		}
		return NewSheetsSource(cfg.SpreadsheetID, cfg.SheetName, f.GoogleCredentialsFile), nil

	case models.SourceGraph:
		if cfg.DriveID == "" || cfg.FileID == "" || cfg.WorksheetName == "" {
			return nil, fmt.Errorf("%w: drive id, file id and worksheet name are required", ingest.ErrNotConfigured)
		}
		if f.Graph.TenantID == "" || f.Graph.ClientID == "" || f.Graph.ClientSecret == "" {
			return nil, fmt.Errorf("%w: graph app credentials are not set", ingest.ErrNotConfigured)
		}
		return NewGraphSource(ctx, f.Graph, cfg.DriveID, cfg.FileID, cfg.WorksheetName), nil

	case models.SourceWorkbook:
		if cfg.WorkbookPath == "" {
			return nil, fmt.Errorf("%w: workbook path is required", ingest.ErrNotConfigured)
		}
		return NewWorkbookSource(cfg.WorkbookPath, cfg.WorksheetName), nil

	case "":
		return nil, fmt.Errorf("%w: no source kind selected", ingest.ErrNotConfigured)

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.SourceKind)
	}
}

// Configured reports whether the configuration names a complete source,
// without building one. Used to decide whether boot and scheduled syncs
// should run at all.
func Configured(cfg models.SyncConfig) bool {
	switch cfg.SourceKind {
	case models.SourceSheets:
		return cfg.SpreadsheetID != "" && cfg.SheetName != ""
	case models.SourceGraph:
		return cfg.DriveID != "" && cfg.FileID != "" && cfg.WorksheetName != ""
	case models.SourceWorkbook:
		return cfg.WorkbookPath != ""
	default:
		return false
	}
}
