package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"

	"github.com/reftrack/reftrack/api"
	dbfs "github.com/reftrack/reftrack/db"
	dbpkg "github.com/reftrack/reftrack/internal/db"
	"github.com/reftrack/reftrack/internal/jobs"
)

func setupExportsHandler(t *testing.T) (*api.ExportsHandler, *jobs.Repository) {
	t.Helper()
	ctx := context.Background()

	d, err := dbpkg.New(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := jobs.NewRepository(d)
	return api.NewExportsHandler(repo, t.TempDir()), repo
}

func TestCreateExport(t *testing.T) {
	handler, repo := setupExportsHandler(t)
	ctx := context.Background()

	// unsupported format
	body, _ := json.Marshal(map[string]string{"format": "xml"})
	w := httptest.NewRecorder()
	handler.CreateExport(w, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(body)))
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for xml format got %d", w.Result().StatusCode)
	}

	// json export gets a generated path under the export dir
	body, _ = json.Marshal(map[string]string{"format": "json"})
	w = httptest.NewRecorder()
	handler.CreateExport(w, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(body)))
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", res.StatusCode)
	}
	var cr struct {
		JobID int64  `json:"job_id"`
		Path  string `json:"path"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cr.JobID == 0 || cr.Path == "" {
		t.Fatalf("unexpected response: %#v", cr)
	}

	j, err := repo.GetJob(ctx, cr.JobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j == nil || j.Type != jobs.TypeExportJSON || j.Status != jobs.StatusQueued {
		t.Fatalf("unexpected job: %#v", j)
	}
	var p jobs.ExportPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.Path != cr.Path {
		t.Fatalf("payload path %q != response path %q", p.Path, cr.Path)
	}

	// explicit path wins
	body, _ = json.Marshal(map[string]string{"format": "csv", "path": "custom/accounts.csv"})
	w = httptest.NewRecorder()
	handler.CreateExport(w, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(body)))
	res2 := w.Result()
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", res2.StatusCode)
	}
	if err := json.NewDecoder(res2.Body).Decode(&cr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cr.Path != "custom/accounts.csv" {
		t.Fatalf("expected explicit path kept got %q", cr.Path)
	}
}

func TestGetExport(t *testing.T) {
	handler, repo := setupExportsHandler(t)
	ctx := context.Background()

	router := mux.NewRouter()
	router.HandleFunc("/exports/{id}", handler.GetExport).Methods("GET")

	// bad id
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/zero", nil))
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", w.Result().StatusCode)
	}

	// unknown id
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/9999", nil))
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id got %d", w.Result().StatusCode)
	}

	payload, _ := json.Marshal(jobs.ExportPayload{Path: "x.json"})
	id, err := repo.Enqueue(ctx, &jobs.Job{Type: jobs.TypeExportJSON, Payload: payload, Priority: 100, MaxAttempts: 3})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/"+strconv.FormatInt(id, 10), nil))
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var j jobs.Job
	if err := json.NewDecoder(res.Body).Decode(&j); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if j.ID != id || j.Status != jobs.StatusQueued {
		t.Fatalf("unexpected job: %#v", j)
	}
}
