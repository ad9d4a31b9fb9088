package ingest

import (
	"testing"
	"time"
)

var testHeaders = []string{
	"Tender Ref No", "Tender Name", "Client Name", "Group", "Country",
	"Tender Value", "Probability", "AVENIR Status", "Tender Result",
	"Date Tender Received", "Remarks", "",
}

func testCols() map[string]int {
	return map[string]int{
		FieldRefNo:        0,
		FieldTenderName:   1,
		FieldClientName:   2,
		FieldGroup:        3,
		FieldCountry:      4,
		FieldValue:        5,
		FieldProbability:  6,
		FieldAvenirStatus: 7,
		FieldTenderResult: 8,
		FieldDateReceived: 9,
		FieldRemarks:      10,
	}
}

func TestTransformRowSkipsBlankRow(t *testing.T) {
	rows := [][]any{
		{},
		{"", "  ", nil, "", "", "", "", "", "", "", "", ""},
	}
	for i, row := range rows {
		if got := TransformRow(testHeaders, row, testCols(), "2024", time.Now()); got != nil {
			t.Errorf("row %d: expected nil for blank row, got %+v", i, got)
		}
	}
}

func TestTransformRowSkipsRowsWithoutIdentity(t *testing.T) {
	// Value and status present, but no ref no, client or tender name.
	row := []any{"", "", "", "Energy", "UAE", "1000", "", "Submitted", "", "", "", ""}
	if got := TransformRow(testHeaders, row, testCols(), "2024", time.Now()); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestTransformRowKeepsPartialIdentity(t *testing.T) {
	row := []any{"", "", "Acme Power", "", "", "", "", "", "", "", "", ""}
	got := TransformRow(testHeaders, row, testCols(), "2024", time.Now())
	if got == nil {
		t.Fatal("expected row with only a client name to survive")
	}
	if got.ClientName != "Acme Power" {
		t.Errorf("client = %q", got.ClientName)
	}
}

func TestTransformRowFullRecord(t *testing.T) {
	syncedAt := time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC)
	row := []any{
		"AV-2024-017", "Substation Upgrade", "Acme Power", "Energy", "UAE",
		"USD 1,250,000.00", "75%", "In Progress", "in progress",
		float64(44562), "awaiting BoQ", "stray",
	}

	got := TransformRow(testHeaders, row, testCols(), "2022", syncedAt)
	if got == nil {
		t.Fatal("expected opportunity")
	}

	if got.RefNo != "AV-2024-017" {
		t.Errorf("ref no = %q", got.RefNo)
	}
	if got.Value != 1250000 {
		t.Errorf("value = %v, want 1250000", got.Value)
	}
	if got.Probability != 75 {
		t.Errorf("probability = %v, want 75", got.Probability)
	}
	if got.CanonicalStage != StageInProgress {
		t.Errorf("stage = %q", got.CanonicalStage)
	}
	if got.StageImputed {
		t.Error("stage should not be imputed")
	}
	if len(got.Statuses) != 1 || got.Statuses[0] != "IN PROGRESS" {
		t.Errorf("statuses = %v, want single IN PROGRESS", got.Statuses)
	}
	if got.DateReceived == nil || !got.DateReceived.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date received = %v, want 2022-01-01", got.DateReceived)
	}
	if got.DateReceivedDisplay != "1 Jan 2022" {
		t.Errorf("display = %q", got.DateReceivedDisplay)
	}
	if !got.SyncedAt.Equal(syncedAt) {
		t.Errorf("synced at = %v", got.SyncedAt)
	}
}

func TestTransformRowNumericScrubbing(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantValue float64
	}{
		{"currency and commas", "AED 2,500,000", 2500000},
		{"plain number", "1000", 1000},
		{"garbage", "TBD", 0},
		{"negative clamps to zero", "-500", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := []any{"REF-1", "", "", "", "", tt.value, "", "", "", "", "", ""}
			got := TransformRow(testHeaders, row, testCols(), "2024", time.Now())
			if got == nil {
				t.Fatal("expected opportunity")
			}
			if got.Value != tt.wantValue {
				t.Errorf("value = %v, want %v", got.Value, tt.wantValue)
			}
		})
	}
}

func TestTransformRowProbabilityDefaults(t *testing.T) {
	tests := []struct {
		status string
		prob   any
		want   float64
	}{
		{"Awarded", "", 100},
		{"Submitted", "", 50},
		{"In Progress", "", 25},
		{"Lost", "", 0},
		{"Pre-bid", "", 10},
		{"Awarded", "250%", 100}, // explicit value clamped
		{"Awarded", "30", 30},    // explicit value wins over default
	}
	for _, tt := range tests {
		row := []any{"REF-1", "", "", "", "", "", tt.prob, tt.status, "", "", "", ""}
		got := TransformRow(testHeaders, row, testCols(), "2024", time.Now())
		if got == nil {
			t.Fatal("expected opportunity")
		}
		if got.Probability != tt.want {
			t.Errorf("status %q prob %v: got %v, want %v", tt.status, tt.prob, got.Probability, tt.want)
		}
	}
}

func TestTransformRowMissingColumnsDegradeToEmpty(t *testing.T) {
	cols := map[string]int{FieldRefNo: 0, FieldValue: -1, FieldCountry: 99}
	row := []any{"REF-9"}

	got := TransformRow(testHeaders, row, cols, "2024", time.Now())
	if got == nil {
		t.Fatal("expected opportunity")
	}
	if got.Value != 0 || got.Country != "" || got.ClientName != "" {
		t.Errorf("expected zero values for absent columns, got %+v", got)
	}
	// No probability column and no status: imputed Pre-bid with its default.
	if got.CanonicalStage != StagePreBid || !got.StageImputed {
		t.Errorf("stage = %q imputed=%v", got.CanonicalStage, got.StageImputed)
	}
	if got.Probability != 10 {
		t.Errorf("probability = %v, want 10", got.Probability)
	}
}

func TestRawSnapshot(t *testing.T) {
	row := []any{"REF-1", "Substation Upgrade"}
	got := TransformRow(testHeaders, row, testCols(), "2024", time.Now())
	if got == nil {
		t.Fatal("expected opportunity")
	}

	if got.RawRow["Tender Ref No"] != "REF-1" {
		t.Errorf("snapshot ref = %v", got.RawRow["Tender Ref No"])
	}
	if got.RawRow["column_11"] != "" {
		t.Errorf("blank header key = %v", got.RawRow["column_11"])
	}
	if got.RawRow["_canonical_stage"] != StagePreBid {
		t.Errorf("snapshot stage = %v", got.RawRow["_canonical_stage"])
	}
	if _, ok := got.RawRow["Remarks"]; !ok {
		t.Error("short row should still produce keys for trailing headers")
	}
}
