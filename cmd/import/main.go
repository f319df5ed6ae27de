// Command import loads a stock spreadsheet into the warehouse without going through the bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"usta-bot/internal/infra/sqlite3"
	"usta-bot/internal/storage"
	"usta-bot/internal/stories/importer"
	"usta-bot/internal/stories/regions"
	"usta-bot/internal/stories/warehouse"
)

// dryRunLedger accepts every row without writing anything.
type dryRunLedger struct{}

func (dryRunLedger) UpsertFromImport(context.Context, warehouse.ImportRow) (warehouse.UpsertOutcome, error) {
	return warehouse.UpsertInserted, nil
}

func main() {
	dbPath := flag.String("db", "./data/usta.db", "path to SQLite database")
	filePath := flag.String("file", "", "path to .xlsx file")
	region := flag.String("region", "", "district to attach rows to (empty for region-less stock)")
	dryRun := flag.Bool("dry-run", false, "validate rows without writing to DB")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("file is required: -file <stock.xlsx>")
	}

	var target *string
	if *region != "" {
		if !regions.MustCatalog().IsValid(*region) {
			log.Fatalf("unknown region %q", *region)
		}
		target = region
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("failed to read file: %v", err)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var imp *importer.Importer
	if *dryRun {
		imp = importer.New(dryRunLedger{}, logger)
	} else {
		db, err := sqlite3.New(ctx, sqlite3.WithPath(*dbPath))
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := storage.Migrate(db.DB.DB); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		imp = importer.New(warehouse.NewService(storage.New(db.DB)), logger)
	}

	res, err := imp.Import(ctx, data, target)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	if *dryRun {
		fmt.Println("DRY RUN: nothing was written")
	}
	fmt.Printf("Total: %d, imported: %d, updated: %d, skipped: %d\n", res.Total, res.Imported, res.Updated, res.Skipped)
	for _, e := range res.Errors {
		fmt.Println("  " + e)
	}
	if res.RemainingErrors > 0 {
		fmt.Printf("  ... and %d more\n", res.RemainingErrors)
	}
}
