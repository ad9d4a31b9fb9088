package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avenir/tender-board/internal/models"
)

var ErrInvalidRefNo = errors.New("opportunity ref no is required")

// Store is the persistence surface for approval state. ApplyTransition must
// write the state change and the audit entry atomically.
type Store interface {
	ApplyTransition(ctx context.Context, approval models.Approval, logEntry models.ApprovalLog) error
	GetApproval(ctx context.Context, refNo string) (models.Approval, bool, error)
	ListApprovals(ctx context.Context) (map[string]models.Approval, error)
	ListApprovalLogs(ctx context.Context, refNo string, limit int) ([]models.ApprovalLog, error)
}

// Actor identifies who performs a transition.
type Actor struct {
	Name  string
	Role  string
	Group string
}

// State is the full approval snapshot served to the dashboard.
type State struct {
	Approvals map[string]models.Approval `json:"approvals"`
	Logs      []models.ApprovalLog       `json:"logs"`
}

// Service runs the approval state machine. With twoStep disabled an approve
// moves pending -> approved directly; with it enabled, a proposal head's
// approve moves to proposal_head_approved and only an SVP or Admin can then
// complete to fully_approved, so no single proposal head signs off alone.
// Revert returns to pending from any state.
type Service struct {
	store   Store
	twoStep bool
}

func NewService(store Store, twoStep bool) *Service {
	return &Service{store: store, twoStep: twoStep}
}

// Approve advances the opportunity's approval state, records who did it, and
// returns the full approvals snapshot so the caller can refresh its whole
// view without a second round trip. Approving an already fully approved
// opportunity, or trying to complete the second step without the role for
// it, is a no-op that still returns the current snapshot.
func (s *Service) Approve(ctx context.Context, refNo string, actor Actor) (*State, error) {
	refNo = strings.TrimSpace(refNo)
	if refNo == "" {
		return nil, ErrInvalidRefNo
	}

	current, _, err := s.store.GetApproval(ctx, refNo)
	if err != nil {
		return nil, err
	}
	if current.Status == "" {
		current.Status = models.ApprovalPending
	}

	next, action := s.nextOnApprove(current.Status, actor.Role)
	if next != current.Status {
		now := time.Now().UTC()
		updated := models.Approval{
			RefNo:          refNo,
			Status:         next,
			ApprovedBy:     actor.Name,
			ApprovedByRole: actor.Role,
			ApprovalDate:   &now,
			UpdatedAt:      now,
		}
		logEntry := models.ApprovalLog{
			RefNo:           refNo,
			Action:          action,
			PerformedBy:     actor.Name,
			PerformedByRole: actor.Role,
			Group:           actor.Group,
		}
		if err := s.store.ApplyTransition(ctx, updated, logEntry); err != nil {
			return nil, fmt.Errorf("failed to approve %q: %w", refNo, err)
		}
	}
	return s.Snapshot(ctx)
}

func (s *Service) nextOnApprove(current, role string) (string, string) {
	if !s.twoStep {
		if current == models.ApprovalApproved {
			return current, ""
		}
		return models.ApprovalApproved, models.ActionApproved
	}

	switch current {
	case models.ApprovalPending:
		if canFullyApprove(role) {
			// An SVP or Admin approval short-circuits the chain.
			return models.ApprovalFull, models.ActionSVPApproved
		}
		return models.ApprovalProposalHead, models.ActionProposalHeadApproved
	case models.ApprovalProposalHead:
		// The second step needs a second actor: only an SVP or Admin may
		// complete, so a proposal head cannot sign off twice.
		if !canFullyApprove(role) {
			return current, ""
		}
		return models.ApprovalFull, models.ActionSVPApproved
	default:
		return current, ""
	}
}

func canFullyApprove(role string) bool {
	return role == models.RoleSVP || role == models.RoleAdmin
}

// Revert returns the opportunity to pending, logging who reverted it, and
// returns the full approvals snapshot like Approve does. The approval row
// keeps existing so the audit trail has an anchor.
func (s *Service) Revert(ctx context.Context, refNo string, actor Actor) (*State, error) {
	refNo = strings.TrimSpace(refNo)
	if refNo == "" {
		return nil, ErrInvalidRefNo
	}

	now := time.Now().UTC()
	updated := models.Approval{
		RefNo:          refNo,
		Status:         models.ApprovalPending,
		ApprovedBy:     "",
		ApprovedByRole: "",
		ApprovalDate:   nil,
		UpdatedAt:      now,
	}
	logEntry := models.ApprovalLog{
		RefNo:           refNo,
		Action:          models.ActionReverted,
		PerformedBy:     actor.Name,
		PerformedByRole: actor.Role,
		Group:           actor.Group,
	}
	if err := s.store.ApplyTransition(ctx, updated, logEntry); err != nil {
		return nil, fmt.Errorf("failed to revert %q: %w", refNo, err)
	}
	return s.Snapshot(ctx)
}

// Status returns the approval state for one ref no. Opportunities nobody has
// acted on yet read as pending without creating a row.
func (s *Service) Status(ctx context.Context, refNo string) (models.Approval, error) {
	refNo = strings.TrimSpace(refNo)
	if refNo == "" {
		return models.Approval{}, ErrInvalidRefNo
	}

	a, found, err := s.store.GetApproval(ctx, refNo)
	if err != nil {
		return models.Approval{}, err
	}
	if !found {
		return models.Approval{RefNo: refNo, Status: models.ApprovalPending}, nil
	}
	return a, nil
}

// Snapshot returns every approval row plus the recent audit log.
func (s *Service) Snapshot(ctx context.Context) (*State, error) {
	approvals, err := s.store.ListApprovals(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListApprovalLogs(ctx, "", 200)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.ApprovalLog{}
	}
	return &State{Approvals: approvals, Logs: logs}, nil
}

// Logs returns the audit entries for one opportunity, newest first.
func (s *Service) Logs(ctx context.Context, refNo string, limit int) ([]models.ApprovalLog, error) {
	return s.store.ListApprovalLogs(ctx, strings.TrimSpace(refNo), limit)
}
