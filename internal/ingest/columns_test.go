package ingest

import (
	"testing"
)

func TestResolveColumn(t *testing.T) {
	headers := []string{"S.No", " Tender Ref No. ", "Name of Client", "TENDER VALUE (USD)", ""}

	tests := []struct {
		name       string
		candidates []string
		want       int
	}{
		{"exact match", []string{"TENDER REF NO"}, 1},
		{"substring match", []string{"REF NO"}, 1},
		{"case insensitive", []string{"name of client"}, 2},
		{"header with suffix", []string{"TENDER VALUE"}, 3},
		{"first candidate wins order of headers", []string{"CLIENT", "REF"}, 1},
		{"no match", []string{"PROBABILITY"}, -1},
		{"empty candidate ignored", []string{"", "CLIENT"}, 2},
		{"empty candidate list", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveColumn(headers, tt.candidates); got != tt.want {
				t.Errorf("ResolveColumn(%v) = %d, want %d", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestResolveColumnsMissingFieldIsSentinel(t *testing.T) {
	m := Mapping{Fields: map[string][]string{
		FieldRefNo:   {"REF NO"},
		FieldGroup:   {"GROUP"},
		FieldRemarks: {"NO SUCH HEADER"},
	}}
	cols := ResolveColumns([]string{"Ref No", "Group"}, m)

	if cols[FieldRefNo] != 0 {
		t.Errorf("ref_no = %d, want 0", cols[FieldRefNo])
	}
	if cols[FieldGroup] != 1 {
		t.Errorf("group = %d, want 1", cols[FieldGroup])
	}
	if cols[FieldRemarks] != -1 {
		t.Errorf("unmatched field = %d, want -1", cols[FieldRemarks])
	}
}

func TestDefaultMappingCoversAllFields(t *testing.T) {
	m, err := DefaultMapping()
	if err != nil {
		t.Fatalf("DefaultMapping: %v", err)
	}

	for _, field := range []string{
		FieldRefNo, FieldTenderName, FieldClientName, FieldInternalLead,
		FieldGroup, FieldOppClass, FieldCountry, FieldValue, FieldProbability,
		FieldAvenirStatus, FieldTenderResult, FieldDateReceived,
		FieldPlannedSubmission, FieldSubmittedDate, FieldRemarks,
		FieldComments, FieldYear,
	} {
		if len(m.Fields[field]) == 0 {
			t.Errorf("no candidates for field %q", field)
		}
	}
}

func TestWithOverrides(t *testing.T) {
	m := Mapping{Fields: map[string][]string{
		FieldRefNo: {"REF NO"},
		FieldValue: {"TENDER VALUE"},
	}}

	merged := m.WithOverrides(map[string][]string{
		FieldValue: {"CONTRACT AMOUNT"},
		FieldRefNo: {}, // empty list keeps the default
	})

	if got := merged.Fields[FieldValue]; len(got) != 1 || got[0] != "CONTRACT AMOUNT" {
		t.Errorf("value candidates = %v, want override", got)
	}
	if got := merged.Fields[FieldRefNo]; len(got) != 1 || got[0] != "REF NO" {
		t.Errorf("ref_no candidates = %v, want default preserved", got)
	}
	if got := m.Fields[FieldValue]; got[0] != "TENDER VALUE" {
		t.Errorf("original mapping mutated: %v", got)
	}
}
