package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avenir/tender-board/internal/models"
)

// ApplyTransition upserts the approval row and appends the matching audit
// entry inside one transaction, so the state and its log can never drift
// apart.
func (s *Store) ApplyTransition(ctx context.Context, approval models.Approval, logEntry models.ApprovalLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO approvals (ref_no, status, approved_by, approved_by_role, approval_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (ref_no) DO UPDATE SET
			status = EXCLUDED.status,
			approved_by = EXCLUDED.approved_by,
			approved_by_role = EXCLUDED.approved_by_role,
			approval_date = EXCLUDED.approval_date,
			updated_at = NOW()
	`, approval.RefNo, approval.Status, approval.ApprovedBy, approval.ApprovedByRole, approval.ApprovalDate)
	if err != nil {
		return fmt.Errorf("failed to upsert approval for %q: %w", approval.RefNo, err)
	}

	if logEntry.ID == uuid.Nil {
		logEntry.ID = uuid.New()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO approval_logs (id, ref_no, action, performed_by, performed_by_role, group_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, logEntry.ID, logEntry.RefNo, logEntry.Action, logEntry.PerformedBy, logEntry.PerformedByRole, logEntry.Group)
	if err != nil {
		return fmt.Errorf("failed to append approval log for %q: %w", logEntry.RefNo, err)
	}

	return tx.Commit(ctx)
}

// GetApproval returns the approval row for a ref no. The second return value
// is false when no action has ever been taken on the opportunity.
func (s *Store) GetApproval(ctx context.Context, refNo string) (models.Approval, bool, error) {
	var a models.Approval
	err := s.pool.QueryRow(ctx, `
		SELECT ref_no, status, approved_by, approved_by_role, approval_date, updated_at
		FROM approvals WHERE ref_no = $1
	`, refNo).Scan(&a.RefNo, &a.Status, &a.ApprovedBy, &a.ApprovedByRole, &a.ApprovalDate, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Approval{}, false, nil
	}
	if err != nil {
		return models.Approval{}, false, fmt.Errorf("failed to load approval for %q: %w", refNo, err)
	}
	return a, true, nil
}

// ListApprovals returns every approval row keyed by ref no.
func (s *Store) ListApprovals(ctx context.Context) (map[string]models.Approval, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ref_no, status, approved_by, approved_by_role, approval_date, updated_at
		FROM approvals
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	approvals := make(map[string]models.Approval)
	for rows.Next() {
		var a models.Approval
		if err := rows.Scan(&a.RefNo, &a.Status, &a.ApprovedBy, &a.ApprovedByRole, &a.ApprovalDate, &a.UpdatedAt); err != nil {
			return nil, err
		}
		approvals[a.RefNo] = a
	}
	return approvals, rows.Err()
}

// ListApprovalLogs returns audit entries newest first, optionally filtered to
// one ref no.
func (s *Store) ListApprovalLogs(ctx context.Context, refNo string, limit int) ([]models.ApprovalLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, ref_no, action, performed_by, performed_by_role, group_name, created_at
		FROM approval_logs`
	args := []any{}
	if refNo != "" {
		query += " WHERE ref_no = $1"
		args = append(args, refNo)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ApprovalLog
	for rows.Next() {
		var l models.ApprovalLog
		if err := rows.Scan(&l.ID, &l.RefNo, &l.Action, &l.PerformedBy, &l.PerformedByRole, &l.Group, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ClearApprovals wipes all approval state and audit history. Admin-only
// maintenance operation used when the tracker is reset for a new cycle.
func (s *Store) ClearApprovals(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM approval_logs"); err != nil {
		return fmt.Errorf("failed to clear approval logs: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM approvals"); err != nil {
		return fmt.Errorf("failed to clear approvals: %w", err)
	}
	return tx.Commit(ctx)
}
