package ingest

import (
	"reflect"
	"testing"
)

func TestCanonicalizeStatus(t *testing.T) {
	tests := []struct {
		raw     string
		stage   string
		imputed bool
	}{
		{"Submitted", StageSubmitted, false},
		{"TENDER SUBMITTED", StageSubmitted, false},
		{"  awarded  ", StageAwarded, false},
		{"Lost", StageLost, false},
		{"Regretted", StageRegretted, false},
		{"On Hold", StageOnHold, false},
		{"Closed", StageOnHold, false},
		{"Tender Closed - no award", StageOnHold, false},
		{"Paused", StageOnHold, false},
		{"In Progress", StageInProgress, false},
		{"Proposal in progress", StageInProgress, false},
		{"Ongoing", StageInProgress, false},
		{"Working", StageInProgress, false},
		{"Pre-bid", StagePreBid, false},
		{"PREQUALIFICATION", StagePreBid, false},
		{"RFT", StagePreBid, false},
		{"EOI", StagePreBid, false},
		{"Open", StagePreBid, false},
		{"BD", StagePreBid, false},
		{"", StagePreBid, true},
		{"   ", StagePreBid, true},
		{"banana", StagePreBid, true},
		{"WON", StagePreBid, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := CanonicalizeStatus(tt.raw)
			if got.Stage != tt.stage {
				t.Errorf("CanonicalizeStatus(%q).Stage = %q, want %q", tt.raw, got.Stage, tt.stage)
			}
			if got.Imputed != tt.imputed {
				t.Errorf("CanonicalizeStatus(%q).Imputed = %v, want %v", tt.raw, got.Imputed, tt.imputed)
			}
			if got.Reason == "" {
				t.Errorf("CanonicalizeStatus(%q) returned empty reason", tt.raw)
			}
		})
	}
}

func TestCanonicalizeStatusIdempotent(t *testing.T) {
	for _, stage := range []string{
		StagePreBid, StageInProgress, StageSubmitted, StageAwarded,
		StageLost, StageRegretted,
	} {
		first := CanonicalizeStatus(stage)
		second := CanonicalizeStatus(first.Stage)
		if second.Stage != first.Stage {
			t.Errorf("stage %q not stable: %q -> %q", stage, first.Stage, second.Stage)
		}
	}
}

func TestCombineStatuses(t *testing.T) {
	tests := []struct {
		name   string
		avenir string
		result string
		want   []string
	}{
		{"both distinct", "In Progress", "Awarded", []string{"IN PROGRESS", "AWARDED"}},
		{"duplicates collapse", "Awarded", "awarded ", []string{"AWARDED"}},
		{"empty result dropped", "Submitted", "", []string{"SUBMITTED"}},
		{"both empty", "", "  ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineStatuses(tt.avenir, tt.result)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultProbability(t *testing.T) {
	tests := []struct {
		stage string
		want  float64
	}{
		{StageAwarded, 100},
		{StageSubmitted, 50},
		{StageInProgress, 25},
		{StageLost, 0},
		{StageRegretted, 0},
		{StageOnHold, 0},
		{StagePreBid, 10},
	}
	for _, tt := range tests {
		if got := DefaultProbability(tt.stage); got != tt.want {
			t.Errorf("DefaultProbability(%q) = %v, want %v", tt.stage, got, tt.want)
		}
	}
}
