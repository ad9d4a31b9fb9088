package notify

import (
	"context"
	"log"
	"strings"

	"github.com/avenir/tender-board/internal/models"
)

// TriggerNewTenderSynced fires once per tender that appears for the first
// time in a sync run.
const TriggerNewTenderSynced = "NEW_TENDER_SYNCED"

// RuleSource resolves rules and their recipients.
type RuleSource interface {
	ActiveRules(ctx context.Context, trigger string) ([]models.NotificationRule, error)
	RecipientsByRole(ctx context.Context, role string) ([]models.Recipient, error)
}

// Dispatcher evaluates notification rules against newly synced tenders and
// sends the resulting mail. Delivery is best effort: failures are logged per
// recipient and never surface to the sync pipeline.
type Dispatcher struct {
	rules  RuleSource
	mailer Mailer
}

func NewDispatcher(rules RuleSource, mailer Mailer) *Dispatcher {
	return &Dispatcher{rules: rules, mailer: mailer}
}

func (d *Dispatcher) NotifyOnSync(ctx context.Context, newTenders []models.Opportunity) {
	if len(newTenders) == 0 {
		return
	}

	rules, err := d.rules.ActiveRules(ctx, TriggerNewTenderSynced)
	if err != nil {
		log.Printf("notification rules unavailable: %v", err)
		return
	}

	sent, failed := 0, 0
	for _, rule := range rules {
		recipients, err := d.rules.RecipientsByRole(ctx, rule.RecipientRole)
		if err != nil {
			log.Printf("failed to resolve recipients for role %q: %v", rule.RecipientRole, err)
			continue
		}

		for _, tender := range newTenders {
			for _, r := range recipients {
				if rule.MatchGroup && !groupMatches(r.GroupName, tender.GroupClassification) {
					continue
				}

				html := BuildHTML(Render(rule.Body, tender))
				msg := Message{
					To:       r,
					Subject:  Render(rule.Subject, tender),
					HTMLBody: html,
					TextBody: HTMLToText(html),
				}
				if err := d.mailer.Send(ctx, msg); err != nil {
					log.Printf("notification to %s failed: %v", r.Email, err)
					failed++
					continue
				}
				sent++
			}
		}
	}

	if sent > 0 || failed > 0 {
		log.Printf("notifications: %d sent, %d failed for %d new tenders", sent, failed, len(newTenders))
	}
}

func groupMatches(recipientGroup, tenderGroup string) bool {
	rg := strings.TrimSpace(recipientGroup)
	tg := strings.TrimSpace(tenderGroup)
	if rg == "" || tg == "" {
		return false
	}
	return strings.EqualFold(rg, tg)
}
