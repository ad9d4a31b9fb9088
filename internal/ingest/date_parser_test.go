package ingest

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCellDate(t *testing.T) {
	tests := []struct {
		name     string
		yearHint string
		raw      any
		want     time.Time
		ok       bool
	}{
		{"nil", "", nil, time.Time{}, false},
		{"empty string", "", "", time.Time{}, false},
		{"dash placeholder", "", "-", time.Time{}, false},
		{"native time", "", time.Date(2023, 5, 4, 13, 45, 0, 0, time.UTC), day(2023, 5, 4), true},
		{"excel serial 44562", "", float64(44562), day(2022, 1, 1), true},
		{"excel serial 44489", "", float64(44489), day(2021, 10, 20), true},
		{"excel serial as int", "", 44562, day(2022, 1, 1), true},
		{"serial below window", "", float64(39000), time.Time{}, false},
		{"serial above window", "", float64(60001), time.Time{}, false},
		{"serial as text", "", "44562", day(2022, 1, 1), true},
		{"iso date", "", "2024-10-21", day(2024, 10, 21), true},
		{"iso with slashes", "", "2024/3/7", day(2024, 3, 7), true},
		{"dmy", "", "21/10/2024", day(2024, 10, 21), true},
		{"dmy two-digit year", "", "21-10-24", day(2024, 10, 21), true},
		{"day month with hint", "2024", "21/10", day(2024, 10, 21), true},
		{"day month name with hint", "2024", "21-Oct", day(2024, 10, 21), true},
		{"day month name spaced", "2021", "5 October", day(2021, 10, 5), true},
		{"long layout", "", "21 October 2024", day(2024, 10, 21), true},
		{"month out of range", "", "2024-13-01", time.Time{}, false},
		{"garbage text", "2024", "TBC", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCellDate(tt.yearHint, tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got %v)", ok, tt.ok, got)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestParseCellDateHintFallsBackToCurrentYear(t *testing.T) {
	got, ok := ParseCellDate("not a year", "21-Oct")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if got.Year() != time.Now().UTC().Year() {
		t.Errorf("year = %d, want current year", got.Year())
	}
}

func TestDisplayReceivedDate(t *testing.T) {
	tests := []struct {
		name     string
		yearHint string
		raw      any
		want     string
	}{
		{"parsed serial", "", float64(44562), "1 Jan 2022"},
		{"parsed text", "2024", "21-Oct", "21 Oct 2024"},
		{"unparseable keeps raw plus hint", "2024", "Q3", "Q3 2024"},
		{"hint already present", "2024", "Q3 2024", "Q3 2024"},
		{"unparseable no hint", "", "TBC", "TBC"},
		{"empty", "2024", "", ""},
		{"nil", "2024", nil, ""},
		{"dash", "2024", "-", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayReceivedDate(tt.yearHint, tt.raw); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
