package ingest

import (
	"strings"
)

// Canonical field names used across the mapping registry, the transformer and
// the persisted column overrides.
const (
	FieldRefNo             = "ref_no"
	FieldTenderName        = "tender_name"
	FieldClientName        = "client_name"
	FieldInternalLead      = "internal_lead"
	FieldGroup             = "group_classification"
	FieldOppClass          = "opportunity_classification"
	FieldCountry           = "country"
	FieldValue             = "opportunity_value"
	FieldProbability       = "probability"
	FieldAvenirStatus      = "avenir_status"
	FieldTenderResult      = "tender_result"
	FieldDateReceived      = "date_tender_received"
	FieldPlannedSubmission = "tender_planned_submission_date"
	FieldSubmittedDate     = "tender_submitted_date"
	FieldRemarks           = "remarks_reason"
	FieldComments          = "comments"
	FieldYear              = "year"
)

// ResolveColumn locates the column for one canonical field: the first header
// whose upper-cased, trimmed text contains any candidate as a substring.
// Substring matching absorbs header drift ("Tender value", " Tender Value ",
// "TENDER VALUE (USD)"). Returns -1 when no candidate matches; callers must
// treat -1 and out-of-range indexes as "column absent" and yield an empty
// value rather than fail.
func ResolveColumn(headers []string, candidates []string) int {
	for i, h := range headers {
		hu := strings.ToUpper(strings.TrimSpace(h))
		if hu == "" {
			continue
		}
		for _, c := range candidates {
			cu := strings.ToUpper(strings.TrimSpace(c))
			if cu == "" {
				continue
			}
			if strings.Contains(hu, cu) {
				return i
			}
		}
	}
	return -1
}

// ResolveColumns resolves every field in the mapping against the header row.
// Fields with no matching header are present in the result with value -1.
func ResolveColumns(headers []string, m Mapping) map[string]int {
	cols := make(map[string]int, len(m.Fields))
	for field, candidates := range m.Fields {
		cols[field] = ResolveColumn(headers, candidates)
	}
	return cols
}
