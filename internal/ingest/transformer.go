package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avenir/tender-board/internal/models"
)

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// TransformRow converts one worksheet row into a canonical opportunity
// record. It returns nil for rows that carry no usable data: fully blank rows
// and rows where ref no, client name and tender name are all empty (noise
// below the data range, subtotal lines, etc.). Parse failures inside a kept
// row never fail the row; they degrade to safe defaults.
func TransformRow(headers []string, row []any, cols map[string]int, yearHint string, syncedAt time.Time) *models.Opportunity {
	if rowBlank(row) {
		return nil
	}

	refNo := cellText(row, col(cols, FieldRefNo))
	clientName := cellText(row, col(cols, FieldClientName))
	tenderName := cellText(row, col(cols, FieldTenderName))
	if refNo == "" && clientName == "" && tenderName == "" {
		return nil
	}

	// A YEAR cell on the row itself beats the sheet-level hint.
	if y := cellText(row, col(cols, FieldYear)); y != "" {
		yearHint = y
	}

	avenirStatus := NormalizeStatus(cellText(row, col(cols, FieldAvenirStatus)))
	tenderResult := NormalizeStatus(cellText(row, col(cols, FieldTenderResult)))
	decision := CanonicalizeStatus(cellText(row, col(cols, FieldAvenirStatus)))

	receivedRaw := cellValue(row, col(cols, FieldDateReceived))
	received := parseOptionalDate(yearHint, receivedRaw)

	opp := &models.Opportunity{
		ID:                        uuid.New(),
		RefNo:                     refNo,
		TenderName:                tenderName,
		ClientName:                clientName,
		InternalLead:              cellText(row, col(cols, FieldInternalLead)),
		GroupClassification:       cellText(row, col(cols, FieldGroup)),
		OpportunityClassification: cellText(row, col(cols, FieldOppClass)),
		Country:                   cellText(row, col(cols, FieldCountry)),
		Value:                     parseNumeric(cellText(row, col(cols, FieldValue))),
		CanonicalStage:            decision.Stage,
		StageImputed:              decision.Imputed,
		StageReason:               decision.Reason,
		AvenirStatus:              avenirStatus,
		TenderResult:              tenderResult,
		Statuses:                  CombineStatuses(avenirStatus, tenderResult),
		DateReceived:              received,
		DateReceivedDisplay:       DisplayReceivedDate(yearHint, receivedRaw),
		PlannedSubmission:         parseOptionalDate(yearHint, cellValue(row, col(cols, FieldPlannedSubmission))),
		SubmittedDate:             parseOptionalDate(yearHint, cellValue(row, col(cols, FieldSubmittedDate))),
		RemarksReason:             cellText(row, col(cols, FieldRemarks)),
		Comments:                  cellText(row, col(cols, FieldComments)),
		RawRow:                    rawSnapshot(headers, row, decision.Stage),
		SyncedAt:                  syncedAt,
	}

	if opp.Value < 0 {
		opp.Value = 0
	}

	if probText := cellText(row, col(cols, FieldProbability)); probText != "" {
		opp.Probability = clampProbability(parseNumeric(probText))
	} else {
		opp.Probability = DefaultProbability(decision.Stage)
	}

	return opp
}

// rawSnapshot preserves the original row verbatim as a header->cell map for
// audit display, independent of how the canonical fields were derived.
func rawSnapshot(headers []string, row []any, stage string) map[string]any {
	snap := make(map[string]any, len(headers)+1)
	for i, h := range headers {
		key := strings.TrimSpace(h)
		if key == "" {
			key = fmt.Sprintf("column_%d", i)
		}
		if i < len(row) {
			snap[key] = row[i]
		} else {
			snap[key] = ""
		}
	}
	snap["_canonical_stage"] = stage
	return snap
}

// parseNumeric strips everything except digits, '.' and '-' before parsing,
// which absorbs currency formatting ("USD 1,250,000.00", "75%"). Unparseable
// values become 0, never an error.
func parseNumeric(text string) float64 {
	clean := nonNumericRe.ReplaceAllString(text, "")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}

func clampProbability(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func parseOptionalDate(yearHint string, raw any) *time.Time {
	if t, ok := ParseCellDate(yearHint, raw); ok {
		return &t
	}
	return nil
}

func rowBlank(row []any) bool {
	for _, cell := range row {
		if strings.TrimSpace(stringifyCell(cell)) != "" {
			return false
		}
	}
	return true
}

// col looks up a resolved column index, treating fields missing from the map
// as absent columns rather than column zero.
func col(cols map[string]int, field string) int {
	if idx, ok := cols[field]; ok {
		return idx
	}
	return -1
}

func cellValue(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cellText(row []any, idx int) string {
	return strings.TrimSpace(stringifyCell(cellValue(row, idx)))
}

func stringifyCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}
