package ingest

import (
	"strings"
)

// Canonical pipeline stages. All raw status text is mapped into this closed
// set; the dashboard and KPI aggregations only ever see these values.
const (
	StagePreBid     = "Pre-bid"
	StageInProgress = "In Progress"
	StageSubmitted  = "Submitted"
	StageAwarded    = "Awarded"
	StageLost       = "Lost"
	StageRegretted  = "Regretted"
	StageOnHold     = "On Hold/Paused"
)

// StageDecision carries the canonical stage together with the rule that
// produced it. Imputed marks stages the canonicalizer had to assume because
// the raw text matched no rule — surfaced instead of silently bucketed so
// data-quality problems stay visible.
type StageDecision struct {
	Stage   string
	Reason  string
	Imputed bool
}

// CanonicalizeStatus maps raw free-text status into a canonical stage.
// Rules apply in order, case-insensitively, on the trimmed text; the first
// match wins. Anything unrecognized falls into the Pre-bid bucket but is
// flagged Imputed.
func CanonicalizeStatus(raw string) StageDecision {
	s := strings.ToUpper(strings.TrimSpace(raw))

	switch {
	case s == "SUBMITTED" || s == "TENDER SUBMITTED":
		return StageDecision{Stage: StageSubmitted, Reason: "exact_submitted"}
	case s == "AWARDED":
		return StageDecision{Stage: StageAwarded, Reason: "exact_awarded"}
	case s == "LOST":
		return StageDecision{Stage: StageLost, Reason: "exact_lost"}
	case s == "REGRETTED":
		// Deliberately distinct from Lost: a regretted tender was declined by
		// us, not lost to a competitor.
		return StageDecision{Stage: StageRegretted, Reason: "exact_regretted"}
	case strings.Contains(s, "HOLD") || strings.Contains(s, "CLOSED") || strings.Contains(s, "PAUSED"):
		return StageDecision{Stage: StageOnHold, Reason: "hold_keyword"}
	case strings.Contains(s, "IN PROGRESS") || s == "ONGOING" || s == "WORKING":
		return StageDecision{Stage: StageInProgress, Reason: "in_progress_keyword"}
	case strings.Contains(s, "PRE") || s == "RFT" || s == "EOI" || s == "OPEN" || s == "BD":
		return StageDecision{Stage: StagePreBid, Reason: "prebid_keyword"}
	case s == "":
		return StageDecision{Stage: StagePreBid, Reason: "empty_default", Imputed: true}
	default:
		return StageDecision{Stage: StagePreBid, Reason: "unrecognized_default", Imputed: true}
	}
}

// NormalizeStatus upper-cases and trims without bucketing. Used where the
// AVENIR status and tender result must be preserved as distinct values.
func NormalizeStatus(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// CombineStatuses merges the AVENIR status and tender result into a single
// de-duplicated list, dropping empties. Identical values collapse to one
// entry.
func CombineStatuses(avenirStatus, tenderResult string) []string {
	out := make([]string, 0, 2)
	for _, raw := range []string{avenirStatus, tenderResult} {
		n := NormalizeStatus(raw)
		if n == "" {
			continue
		}
		dup := false
		for _, existing := range out {
			if existing == n {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

// DefaultProbability supplies the win probability assumed when the source
// cell is blank, varying by stage.
func DefaultProbability(stage string) float64 {
	switch stage {
	case StageAwarded:
		return 100
	case StageSubmitted:
		return 50
	case StageInProgress:
		return 25
	case StageLost, StageRegretted, StageOnHold:
		return 0
	default:
		return 10
	}
}
