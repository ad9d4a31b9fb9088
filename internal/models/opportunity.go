package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is the canonical record produced by one spreadsheet row.
// The whole collection is replaced on every sync run; the dashboard treats
// these as read-only except for the fields owned by the approval workflow.
type Opportunity struct {
	ID                        uuid.UUID      `json:"id"`
	RefNo                     string         `json:"opportunity_ref_no"`
	TenderName                string         `json:"tender_name"`
	ClientName                string         `json:"client_name"`
	InternalLead              string         `json:"internal_lead"`
	GroupClassification       string         `json:"group_classification"`
	OpportunityClassification string         `json:"opportunity_classification"`
	Country                   string         `json:"country"`
	Value                     float64        `json:"opportunity_value"`
	Probability               float64        `json:"probability"`
	CanonicalStage            string         `json:"canonical_stage"`
	StageImputed              bool           `json:"stage_imputed"`
	StageReason               string         `json:"stage_reason"`
	AvenirStatus              string         `json:"avenir_status"`
	TenderResult              string         `json:"tender_result"`
	Statuses                  []string       `json:"statuses"`
	DateReceived              *time.Time     `json:"date_tender_received"`
	DateReceivedDisplay       string         `json:"date_tender_received_display"`
	PlannedSubmission         *time.Time     `json:"tender_planned_submission_date"`
	SubmittedDate             *time.Time     `json:"tender_submitted_date"`
	RemarksReason             string         `json:"remarks_reason"`
	Comments                  string         `json:"comments"`
	RawRow                    map[string]any `json:"raw_row"` // full source row snapshot, audit/display only
	SyncedAt                  time.Time      `json:"synced_at"`
}
