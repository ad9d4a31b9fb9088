package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Excel stores dates as day counts from this epoch (the 1900 system, with its
// off-by-two leap-year quirk absorbed by anchoring at Dec 30).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial values in this window bracket plausible tender dates (circa
// 2009-2064). Numbers outside the window are NOT treated as serials.
const (
	serialMin = 40000
	serialMax = 60000
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	dmyDateRe   = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4}|\d{2})$`)
	dmDateRe    = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})$`)
	dayMonthRe  = regexp.MustCompile(`^(\d{1,2})[ \-]([A-Za-z]{3,9})\.?$`)
	monthByAbbr = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// fallbackLayouts is the last-resort attempt order for free-form date text.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2 January 2006",
	"02 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
}

// ParseCellDate normalizes one raw cell value into a calendar date. It never
// panics and reports ok=false for anything unparseable. The resolution order
// is fixed: empty/dash, native date, Excel serial number, ISO text, D/M/Y
// text, D/M text plus year hint, "21 Oct" text plus year hint, then generic
// layout parsing.
func ParseCellDate(yearHint string, raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(v.UTC()), true
	case float64:
		return serialToDate(v)
	case float32:
		return serialToDate(float64(v))
	case int:
		return serialToDate(float64(v))
	case int64:
		return serialToDate(float64(v))
	case string:
		return parseDateText(yearHint, v)
	default:
		return parseDateText(yearHint, fmt.Sprint(v))
	}
}

// DisplayReceivedDate builds the best-effort human-readable string shown next
// to the normalized received date. It tries the same precedence as
// ParseCellDate and falls back to concatenating the raw text and the year
// hint, so operators always see what was actually in the cell.
func DisplayReceivedDate(yearHint string, raw any) string {
	if t, ok := ParseCellDate(yearHint, raw); ok {
		return t.Format("2 Jan 2006")
	}

	text := strings.TrimSpace(fmt.Sprint(raw))
	if raw == nil || text == "" || text == "-" {
		return ""
	}
	hint := strings.TrimSpace(yearHint)
	if hint != "" && !strings.Contains(text, hint) {
		return text + " " + hint
	}
	return text
}

func serialToDate(v float64) (time.Time, bool) {
	if v <= serialMin || v >= serialMax {
		return time.Time{}, false
	}
	return excelEpoch.AddDate(0, 0, int(v)), true
}

func parseDateText(yearHint, text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return time.Time{}, false
	}

	// Some sources (excelize in raw mode, CSV exports) hand serials over as
	// text; give them the same windowed treatment as numeric cells.
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return serialToDate(n)
	}

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := dmyDateRe.FindStringSubmatch(text); m != nil {
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return makeDate(year, atoi(m[2]), atoi(m[1]))
	}

	if m := dmDateRe.FindStringSubmatch(text); m != nil {
		return makeDate(hintYear(yearHint), atoi(m[2]), atoi(m[1]))
	}

	if m := dayMonthRe.FindStringSubmatch(text); m != nil {
		abbr := strings.ToLower(m[2])
		if len(abbr) > 3 {
			abbr = abbr[:3]
		}
		if month, ok := monthByAbbr[abbr]; ok {
			return makeDate(hintYear(yearHint), int(month), atoi(m[1]))
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return dateOnly(t.UTC()), true
		}
	}

	return time.Time{}, false
}

// makeDate validates month and day bounds only; month-length validation is
// deliberately left to the storage layer's DATE type.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func hintYear(hint string) int {
	if y, err := strconv.Atoi(strings.TrimSpace(hint)); err == nil && y >= 1900 && y <= 2200 {
		return y
	}
	return time.Now().UTC().Year()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
