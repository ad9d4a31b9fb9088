package main

import (
	"context"
	"flag"
	"log"

	"github.com/avenir/tender-board/internal/config"
	"github.com/avenir/tender-board/internal/db"
	"github.com/avenir/tender-board/internal/ingest"
	"github.com/avenir/tender-board/internal/models"
	"github.com/avenir/tender-board/internal/source"
)

// One-off import of a local tracker snapshot, bypassing the configured
// source. Useful for backfilling and for validating a workbook before
// pointing the live sync at it.
func main() {
	path := flag.String("file", "", "path to the .xlsx tracker snapshot")
	sheet := flag.String("sheet", "", "worksheet name (defaults to the first sheet)")
	headerOffset := flag.Int("header-offset", 0, "zero-based index of the header row")
	yearHint := flag.String("year", "", "year hint for partial dates")
	flag.Parse()

	if *path == "" {
		log.Fatal("-file is required")
	}

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

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatal(err)
	}

	store := db.NewStore(pool)
	pipeline := ingest.NewPipeline(store, nil)

	syncCfg := models.SyncConfig{
		SourceKind:   models.SourceWorkbook,
		WorkbookPath: *path,
		HeaderOffset: *headerOffset,
		YearHint:     *yearHint,
	}

	result, err := pipeline.Sync(ctx, syncCfg, source.NewWorkbookSource(*path, *sheet))
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Imported %d opportunities (%d rows skipped)", result.SyncedCount, result.SkippedCount)
}
