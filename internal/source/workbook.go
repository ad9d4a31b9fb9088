package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookSource reads a local .xlsx file. Used for one-off imports and for
// testing transforms against a tracker snapshot without touching the live
// spreadsheet.
type WorkbookSource struct {
	path      string
	worksheet string
}

func NewWorkbookSource(path, worksheet string) *WorkbookSource {
	return &WorkbookSource{path: path, worksheet: worksheet}
}

func (s *WorkbookSource) Name() string { return "local_workbook" }

func (s *WorkbookSource) Rows(ctx context.Context) ([][]any, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.worksheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	// Raw mode hands dates over as serial-number text, matching what the
	// other sources deliver.
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}

	rows := make([][]any, len(raw))
	for i, r := range raw {
		row := make([]any, len(r))
		for j, cell := range r {
			row[j] = cell
		}
		rows[i] = row
	}
	return rows, nil
}
