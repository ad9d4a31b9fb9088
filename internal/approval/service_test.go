package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/avenir/tender-board/internal/models"
)

type memStore struct {
	approvals map[string]models.Approval
	logs      []models.ApprovalLog

	transitionErr error
}

func newMemStore() *memStore {
	return &memStore{approvals: make(map[string]models.Approval)}
}

func (m *memStore) ApplyTransition(ctx context.Context, approval models.Approval, logEntry models.ApprovalLog) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	m.approvals[approval.RefNo] = approval
	m.logs = append(m.logs, logEntry)
	return nil
}

func (m *memStore) GetApproval(ctx context.Context, refNo string) (models.Approval, bool, error) {
	a, ok := m.approvals[refNo]
	return a, ok, nil
}

func (m *memStore) ListApprovals(ctx context.Context) (map[string]models.Approval, error) {
	return m.approvals, nil
}

func (m *memStore) ListApprovalLogs(ctx context.Context, refNo string, limit int) ([]models.ApprovalLog, error) {
	if refNo == "" {
		return m.logs, nil
	}
	var out []models.ApprovalLog
	for _, l := range m.logs {
		if l.RefNo == refNo {
			out = append(out, l)
		}
	}
	return out, nil
}

var head = Actor{Name: "Hana", Role: models.RoleProposalHead, Group: "Energy"}
var svp = Actor{Name: "Samir", Role: models.RoleSVP}
var admin = Actor{Name: "Aya", Role: models.RoleAdmin}

func TestApproveSimple(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, false)

	snap, err := svc.Approve(context.Background(), "AV-001", head)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got := snap.Approvals["AV-001"]
	if got.Status != models.ApprovalApproved {
		t.Errorf("status = %q", got.Status)
	}
	if got.ApprovedBy != "Hana" || got.ApprovalDate == nil {
		t.Errorf("approval = %+v", got)
	}

	if len(store.logs) != 1 || store.logs[0].Action != models.ActionApproved {
		t.Fatalf("logs = %+v", store.logs)
	}
	if store.logs[0].Group != "Energy" {
		t.Errorf("log group = %q", store.logs[0].Group)
	}

	// A second approve is a no-op: same state, no extra log.
	if _, err := svc.Approve(context.Background(), "AV-001", svp); err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if len(store.logs) != 1 {
		t.Errorf("expected no extra log, got %d entries", len(store.logs))
	}
}

func TestApproveReturnsFullSnapshot(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, false)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "AV-010", head); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	snap, err := svc.Approve(ctx, "AV-011", head)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// Every approval and every log entry comes back, not just the row
	// that was touched, so the caller never needs a second read.
	if len(snap.Approvals) != 2 || len(snap.Logs) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Approvals["AV-010"].Status != models.ApprovalApproved {
		t.Errorf("earlier approval missing: %+v", snap.Approvals)
	}

	snap, err = svc.Revert(ctx, "AV-010", head)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if len(snap.Approvals) != 2 || len(snap.Logs) != 3 {
		t.Fatalf("snapshot after revert = %+v", snap)
	}
}

func TestApproveTwoStepChain(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, true)
	ctx := context.Background()

	first, err := svc.Approve(ctx, "AV-002", head)
	if err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	if got := first.Approvals["AV-002"].Status; got != models.ApprovalProposalHead {
		t.Errorf("after first approve: %q", got)
	}

	second, err := svc.Approve(ctx, "AV-002", svp)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if got := second.Approvals["AV-002"].Status; got != models.ApprovalFull {
		t.Errorf("after second approve: %q", got)
	}

	if len(store.logs) != 2 {
		t.Fatalf("logs = %+v", store.logs)
	}
	if store.logs[0].Action != models.ActionProposalHeadApproved || store.logs[1].Action != models.ActionSVPApproved {
		t.Errorf("actions = %q, %q", store.logs[0].Action, store.logs[1].Action)
	}

	// Fully approved is terminal for approve.
	if _, err := svc.Approve(ctx, "AV-002", svp); err != nil {
		t.Fatalf("third Approve: %v", err)
	}
	if len(store.logs) != 2 {
		t.Errorf("expected no extra log, got %d entries", len(store.logs))
	}
}

func TestApproveTwoStepHeadCannotCompleteAlone(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, true)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "AV-007", head); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	snap, err := svc.Approve(ctx, "AV-007", head)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}

	// Second sign-off needs a second actor: the same proposal head
	// approving again must not reach fully approved.
	if got := snap.Approvals["AV-007"].Status; got != models.ApprovalProposalHead {
		t.Errorf("status = %q, want %q", got, models.ApprovalProposalHead)
	}
	if len(store.logs) != 1 {
		t.Fatalf("logs = %+v", store.logs)
	}
	if store.logs[0].Action != models.ActionProposalHeadApproved || store.logs[0].PerformedByRole != models.RoleProposalHead {
		t.Errorf("log = %+v", store.logs[0])
	}
}

func TestApproveTwoStepAdminCompletes(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, true)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "AV-008", head); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	snap, err := svc.Approve(ctx, "AV-008", admin)
	if err != nil {
		t.Fatalf("admin Approve: %v", err)
	}
	if got := snap.Approvals["AV-008"].Status; got != models.ApprovalFull {
		t.Errorf("status = %q", got)
	}
	if len(store.logs) != 2 || store.logs[1].Action != models.ActionSVPApproved {
		t.Fatalf("logs = %+v", store.logs)
	}
	if store.logs[1].PerformedByRole != models.RoleAdmin {
		t.Errorf("log role = %q", store.logs[1].PerformedByRole)
	}
}

func TestApproveTwoStepSVPShortCircuit(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, true)

	snap, err := svc.Approve(context.Background(), "AV-003", svp)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got := snap.Approvals["AV-003"].Status; got != models.ApprovalFull {
		t.Errorf("status = %q, want fully approved", got)
	}
	if len(store.logs) != 1 || store.logs[0].Action != models.ActionSVPApproved {
		t.Errorf("logs = %+v", store.logs)
	}
}

func TestRevert(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, true)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "AV-004", svp); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	snap, err := svc.Revert(ctx, "AV-004", head)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	got := snap.Approvals["AV-004"]
	if got.Status != models.ApprovalPending {
		t.Errorf("status = %q", got.Status)
	}
	if got.ApprovedBy != "" || got.ApprovalDate != nil {
		t.Errorf("approver fields not cleared: %+v", got)
	}
	if len(store.logs) != 2 || store.logs[1].Action != models.ActionReverted {
		t.Errorf("logs = %+v", store.logs)
	}
}

func TestStatusUnknownRefNoReadsPending(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, false)

	got, err := svc.Status(context.Background(), "AV-404")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != models.ApprovalPending {
		t.Errorf("status = %q", got.Status)
	}
	if len(store.approvals) != 0 {
		t.Error("reading status must not create a row")
	}
}

func TestEmptyRefNoRejected(t *testing.T) {
	svc := NewService(newMemStore(), false)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "   ", head); !errors.Is(err, ErrInvalidRefNo) {
		t.Errorf("Approve err = %v", err)
	}
	if _, err := svc.Revert(ctx, "", head); !errors.Is(err, ErrInvalidRefNo) {
		t.Errorf("Revert err = %v", err)
	}
	if _, err := svc.Status(ctx, ""); !errors.Is(err, ErrInvalidRefNo) {
		t.Errorf("Status err = %v", err)
	}
}

func TestApproveStoreFailurePropagates(t *testing.T) {
	store := newMemStore()
	store.transitionErr = errors.New("db down")
	svc := NewService(store, false)

	if _, err := svc.Approve(context.Background(), "AV-005", head); err == nil {
		t.Fatal("expected error")
	}
	if len(store.approvals) != 0 || len(store.logs) != 0 {
		t.Error("failed transition must not leave partial state")
	}
}

func TestSnapshot(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, false)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "AV-006", head); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Approvals) != 1 || len(snap.Logs) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Approvals["AV-006"].Status != models.ApprovalApproved {
		t.Errorf("approval = %+v", snap.Approvals["AV-006"])
	}
}
