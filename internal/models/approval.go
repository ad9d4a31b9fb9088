package models

import (
	"time"

	"github.com/google/uuid"
)

// Approval statuses. The simple deployment cycles pending <-> approved;
// the two-actor variant walks pending -> proposal_head_approved ->
// fully_approved, with revert returning to pending from any state.
const (
	ApprovalPending      = "pending"
	ApprovalApproved     = "approved"
	ApprovalProposalHead = "proposal_head_approved"
	ApprovalFull         = "fully_approved"
)

// Audit log actions, one per recorded transition.
const (
	ActionApproved             = "approved"
	ActionReverted             = "reverted"
	ActionProposalHeadApproved = "proposal_head_approved"
	ActionSVPApproved          = "svp_approved"
)

// Approval tracks the sign-off state of a single opportunity, keyed by ref no.
// Exactly one row exists per distinct ref no; it is created lazily on the
// first approval action.
type Approval struct {
	RefNo          string     `json:"opportunity_ref_no"`
	Status         string     `json:"status"`
	ApprovedBy     string     `json:"approved_by"`
	ApprovedByRole string     `json:"approved_by_role"`
	ApprovalDate   *time.Time `json:"approval_date"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ApprovalLog is one append-only audit entry. Entries are never edited or
// removed in normal operation and are displayed newest first.
type ApprovalLog struct {
	ID              uuid.UUID `json:"id"`
	RefNo           string    `json:"opportunity_ref_no"`
	Action          string    `json:"action"`
	PerformedBy     string    `json:"performed_by"`
	PerformedByRole string    `json:"performed_by_role"`
	Group           string    `json:"group,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
