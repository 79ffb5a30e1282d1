package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/qri-io/jsonschema"

	dbfs "github.com/reftrack/reftrack/db"
	"github.com/reftrack/reftrack/internal/config"
	"github.com/reftrack/reftrack/internal/db"
	"github.com/reftrack/reftrack/internal/repository/sqlite"
	"github.com/reftrack/reftrack/pkg/models"
)

//go:embed schema.json
var exportSchema []byte

type exportDocument struct {
	ExportedAt    string           `json:"exported_at"`
	TotalAccounts int              `json:"total_accounts"`
	Accounts      []models.Account `json:"accounts"`
}

// Restores accounts from a JSON export produced by the exports API. The
// document is validated against the embedded schema before anything is
// written, so a truncated or hand-edited file fails fast instead of
// half-loading.
func main() {
	var exportPath string
	flag.StringVar(&exportPath, "file", "", "path to a JSON export file")
	flag.Parse()

	if exportPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: db_restore -file <export.json>")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(exportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(exportSchema, rs); err != nil {
		fmt.Fprintf(os.Stderr, "Schema error: %v\n", err)
		os.Exit(1)
	}
	keyErrs, err := rs.ValidateBytes(ctx, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(1)
	}
	if len(keyErrs) > 0 {
		for _, ke := range keyErrs {
			fmt.Fprintf(os.Stderr, "Invalid export: %s: %s\n", ke.PropertyPath, ke.Message)
		}
		os.Exit(1)
	}

	var doc exportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	repo := sqlite.New(database, logger)

	restored := 0
	for i := range doc.Accounts {
		if repo.UpsertAccount(ctx, &doc.Accounts[i]) {
			restored++
		}
	}

	fmt.Printf("Restored %d of %d accounts from %s\n", restored, len(doc.Accounts), exportPath)
}
