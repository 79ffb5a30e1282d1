package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log/slog"

	dbfs "github.com/reftrack/reftrack/db"
	"github.com/reftrack/reftrack/internal/db"
	"github.com/reftrack/reftrack/internal/jobs"
	"github.com/reftrack/reftrack/internal/repository/sqlite"
	"github.com/reftrack/reftrack/pkg/models"
)

func setupJobs(t *testing.T) (*jobs.Repository, *db.DB, func()) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		d.Close()
		t.Fatalf("migrate: %v", err)
	}

	return jobs.NewRepository(d), d, func() { d.Close() }
}

func TestEnqueueAndProcess(t *testing.T) {
	repo, _, cleanup := setupJobs(t)
	defer cleanup()
	ctx := context.Background()
	logger := slog.Default()

	handled := make(chan struct{}, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *jobs.Job) error {
			handled <- struct{}{}
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, logger, 1)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-handled:
		// ok
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}

	// job ends up done
	deadline := time.Now().Add(3 * time.Second)
	for {
		j, err := repo.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if j != nil && j.Status == jobs.StatusDone {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never marked done: %#v", j)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestFailingJobMovesToDeadLetter(t *testing.T) {
	repo, d, cleanup := setupJobs(t)
	defer cleanup()
	ctx := context.Background()

	handlers := map[string]jobs.Handler{
		"boom": func(ctx context.Context, j *jobs.Job) error {
			return errors.New("boom")
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	// a single attempt fails straight into the dead letter table
	id, err := pool.Enqueue(ctx, "boom", map[string]string{}, 10, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		var count int
		row := d.QueryRow(ctx, `SELECT COUNT(1) FROM dead_letter_jobs WHERE job_id = ?`, id)
		if err := row.Scan(&count); err != nil {
			t.Fatalf("scan dead letter count: %v", err)
		}
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never reached dead letter table")
		}
		time.Sleep(50 * time.Millisecond)
	}

	j, err := repo.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j == nil || j.Status != jobs.StatusFailed {
		t.Fatalf("expected failed job got: %#v", j)
	}
	if j.LastError == "" {
		t.Fatalf("expected last_error recorded")
	}
}

func TestGetJob_Missing(t *testing.T) {
	repo, _, cleanup := setupJobs(t)
	defer cleanup()

	j, err := repo.GetJob(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetJob error: %v", err)
	}
	if j != nil {
		t.Fatalf("expected nil for missing job got: %#v", j)
	}
}

func TestBackoffDuration(t *testing.T) {
	if jobs.BackoffDuration(0) != time.Second {
		t.Fatalf("expected 1s floor")
	}
	if jobs.BackoffDuration(1) != 2*time.Second {
		t.Fatalf("expected 2s for attempt 1")
	}
	if jobs.BackoffDuration(2) != 4*time.Second {
		t.Fatalf("expected 4s for attempt 2")
	}
	if jobs.BackoffDuration(30) != 5*time.Minute {
		t.Fatalf("expected 5m cap")
	}
}

func TestExportHandlers(t *testing.T) {
	_, d, cleanup := setupJobs(t)
	defer cleanup()
	ctx := context.Background()

	store := sqlite.New(d, nil)
	if !store.UpsertAccount(ctx, &models.Account{Email: "job@example.com", Password: "p", ReferralCode: "R"}) {
		t.Fatalf("upsert failed")
	}

	handlers := jobs.ExportHandlers(store)
	path := filepath.Join(t.TempDir(), "out.json")
	payload, _ := json.Marshal(jobs.ExportPayload{Path: path})

	h, ok := handlers[jobs.TypeExportJSON]
	if !ok {
		t.Fatalf("missing handler for %s", jobs.TypeExportJSON)
	}
	if err := h(ctx, &jobs.Job{Type: jobs.TypeExportJSON, Payload: payload}); err != nil {
		t.Fatalf("export handler error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected export file written: %v", err)
	}

	// missing path and bad payload are handler errors, not panics
	if err := h(ctx, &jobs.Job{Type: jobs.TypeExportJSON, Payload: []byte(`{}`)}); err == nil {
		t.Fatalf("expected error for missing path")
	}
	if err := h(ctx, &jobs.Job{Type: jobs.TypeExportJSON, Payload: []byte(`not json`)}); err == nil {
		t.Fatalf("expected error for bad payload")
	}
}
