package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avenir/tender-board/internal/models"
)

// ActiveRules returns the active notification rules for a trigger event.
func (s *Store) ActiveRules(ctx context.Context, trigger string) ([]models.NotificationRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, trigger_event, recipient_role, match_group, subject, body, active, created_at
		FROM notification_rules
		WHERE trigger_event = $1 AND active = true
		ORDER BY created_at ASC
	`, trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification rules: %w", err)
	}
	defer rows.Close()

	var rules []models.NotificationRule
	for rows.Next() {
		var r models.NotificationRule
		if err := rows.Scan(&r.ID, &r.Trigger, &r.RecipientRole, &r.MatchGroup, &r.Subject, &r.Body, &r.Active, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) ListRules(ctx context.Context) ([]models.NotificationRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, trigger_event, recipient_role, match_group, subject, body, active, created_at
		FROM notification_rules ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification rules: %w", err)
	}
	defer rows.Close()

	var rules []models.NotificationRule
	for rows.Next() {
		var r models.NotificationRule
		if err := rows.Scan(&r.ID, &r.Trigger, &r.RecipientRole, &r.MatchGroup, &r.Subject, &r.Body, &r.Active, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) CreateRule(ctx context.Context, rule models.NotificationRule) (models.NotificationRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notification_rules (id, trigger_event, recipient_role, match_group, subject, body, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, rule.ID, rule.Trigger, rule.RecipientRole, rule.MatchGroup, rule.Subject, rule.Body, rule.Active).Scan(&rule.CreatedAt)
	if err != nil {
		return rule, fmt.Errorf("failed to create notification rule: %w", err)
	}
	return rule, nil
}

func (s *Store) SetRuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx, "UPDATE notification_rules SET active = $2 WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("failed to update notification rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification rule %s not found", id)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM notification_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete notification rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification rule %s not found", id)
	}
	return nil
}

// RecipientsByRole resolves the users holding a role into notification
// recipients.
func (s *Store) RecipientsByRole(ctx context.Context, role string) ([]models.Recipient, error) {
	rows, err := s.pool.Query(ctx, "SELECT email, name, group_name FROM users WHERE role = $1", role)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients for role %q: %w", role, err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.Email, &r.Name, &r.GroupName); err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}
