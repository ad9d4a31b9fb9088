package source

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads the tracker range from a Google Sheets spreadsheet using
// a service-account credentials file.
type SheetsSource struct {
	spreadsheetID   string
	sheetName       string
	credentialsFile string
}

func NewSheetsSource(spreadsheetID, sheetName, credentialsFile string) *SheetsSource {
	return &SheetsSource{
		spreadsheetID:   spreadsheetID,
		sheetName:       sheetName,
		credentialsFile: credentialsFile,
	}
}

func (s *SheetsSource) Name() string { return "google_sheets" }

// Rows fetches the entire sheet. UNFORMATTED_VALUE with SERIAL_NUMBER keeps
// numbers as float64 and dates as Excel serials, so the date parser sees the
// same raw values the workbook actually stores.
func (s *SheetsSource) Rows(ctx context.Context) ([][]any, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(s.credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", s.spreadsheetID, err)
	}

	rows := make([][]any, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = r
	}
	return rows, nil
}
