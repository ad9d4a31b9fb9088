package main

import (
	"context"
	"log"

	"github.com/avenir/tender-board/internal/config"
	"github.com/avenir/tender-board/internal/db"
	"github.com/avenir/tender-board/internal/models"
	"github.com/avenir/tender-board/internal/notify"
)

// Seeds the default notification rule: SVPs of the matching group get a mail
// for every tender that appears in a sync for the first time.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := db.NewStore(pool)

	existing, err := store.ActiveRules(ctx, notify.TriggerNewTenderSynced)
	if err != nil {
		log.Fatal(err)
	}
	if len(existing) > 0 {
		log.Printf("Found %d active rules already, nothing to do", len(existing))
		return
	}

	rule, err := store.CreateRule(ctx, models.NotificationRule{
		Trigger:       notify.TriggerNewTenderSynced,
		RecipientRole: models.RoleSVP,
		MatchGroup:    true,
		Subject:       "New tender synced: {{ref_no}}",
		Body: "A new tender has been synced to the board.\n" +
			"{{tender_name}} for {{client_name}} ({{country}})\n" +
			"Group: {{group}}\n" +
			"Value: {{value}}\n" +
			"Received: {{date_received}}",
		Active: true,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Created default rule %s", rule.ID)
}
