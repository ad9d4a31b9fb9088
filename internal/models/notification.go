package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationRule describes one templated email rule evaluated per sync
// batch. Subject and Body may contain {{field}} placeholders resolved against
// the tender being notified about.
type NotificationRule struct {
	ID            uuid.UUID `json:"id"`
	Trigger       string    `json:"trigger"`
	RecipientRole string    `json:"recipient_role"`
	MatchGroup    bool      `json:"match_group"` // restrict to recipients whose group matches the tender's
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recipient is a resolved email target for a notification rule.
type Recipient struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	GroupName string `json:"group_name"`
}
