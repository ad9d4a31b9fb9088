package main

import (
	"context"
	"log"
	"time"

	"github.com/avenir/tender-board/internal/api"
	"github.com/avenir/tender-board/internal/approval"
	"github.com/avenir/tender-board/internal/auth"
	"github.com/avenir/tender-board/internal/config"
	"github.com/avenir/tender-board/internal/db"
	"github.com/avenir/tender-board/internal/ingest"
	"github.com/avenir/tender-board/internal/models"
	"github.com/avenir/tender-board/internal/notify"
	"github.com/avenir/tender-board/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	store := db.NewStore(pool)

	authService, err := auth.NewService(pool, cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	dispatcher := notify.NewDispatcher(store, mailer)

	pipeline := ingest.NewPipeline(store, dispatcher)
	sourceFactory := &source.Factory{
		GoogleCredentialsFile: cfg.GoogleCredentialsFile,
		Graph: source.GraphCredentials{
			TenantID:     cfg.GraphTenantID,
			ClientID:     cfg.GraphClientID,
			ClientSecret: cfg.GraphClientSecret,
		},
	}

	scheduler := ingest.NewScheduler(
		pipeline,
		func(ctx context.Context) (models.SyncConfig, error) { return store.GetSyncConfig(ctx) },
		func(ctx context.Context, c models.SyncConfig) (ingest.RowSource, error) {
			return sourceFactory.FromConfig(ctx, c)
		},
		time.Duration(cfg.SyncIntervalMin)*time.Minute,
	)
	if cfg.BootSync {
		go scheduler.BootSync(ctx)
	}
	go scheduler.Start(ctx)

	srv := api.NewServer(api.Options{
		Store:         store,
		AuthService:   authService,
		Approvals:     approval.NewService(store, true),
		Pipeline:      pipeline,
		SourceFactory: sourceFactory,
		AdminSecret:   cfg.AdminSecret,
		CORSOrigins:   cfg.CORSOrigins,
	})

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
