package db_test

import (
	"context"
	"testing"

	dbfs "github.com/reftrack/reftrack/db"
	"github.com/reftrack/reftrack/internal/db"
)

// Note: this test uses an in-memory sqlite database to validate idempotent
// behavior of Migrate, including the seeded task catalog.
func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, "file:migrate_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	// run again to ensure idempotency
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	// verify schema_migrations has at least one entry
	var count int
	row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least 1 migration recorded, got %d", count)
	}

	// verify known tables from the embedded migrations exist
	for _, table := range []string{"accounts", "task_history", "task_catalog", "jobs", "dead_letter_jobs"} {
		var name string
		r := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table)
		if err := r.Scan(&name); err != nil {
			t.Fatalf("expected %s table exists: %v", table, err)
		}
	}
}

func TestMigrate_SeedsCatalogOnce(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, "file:seed_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	var xp int64
	row := d.QueryRow(ctx, `SELECT xp FROM task_catalog WHERE task_type = 'checkin'`)
	if err := row.Scan(&xp); err != nil {
		t.Fatalf("expected seeded checkin entry: %v", err)
	}
	if xp != 10 {
		t.Fatalf("expected checkin xp 10 got %d", xp)
	}

	// operator tuning survives a re-migrate: the seed never overwrites
	if _, err := d.Exec(ctx, `UPDATE task_catalog SET xp = 99 WHERE task_type = 'checkin'`); err != nil {
		t.Fatalf("update catalog: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("re-migrate failed: %v", err)
	}
	row = d.QueryRow(ctx, `SELECT xp FROM task_catalog WHERE task_type = 'checkin'`)
	if err := row.Scan(&xp); err != nil {
		t.Fatalf("scan tuned entry: %v", err)
	}
	if xp != 99 {
		t.Fatalf("expected tuned xp 99 preserved got %d", xp)
	}
}
