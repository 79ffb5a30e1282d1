package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/reftrack/reftrack/internal/jobs"
)

// ExportsHandler enqueues export jobs and reports their status. The actual
// file writing happens in the worker pool.
type ExportsHandler struct {
	jobsRepo  *jobs.Repository
	exportDir string
}

func NewExportsHandler(jr *jobs.Repository, exportDir string) *ExportsHandler {
	return &ExportsHandler{jobsRepo: jr, exportDir: exportDir}
}

type createExportRequest struct {
	Format string `json:"format"`
	Path   string `json:"path,omitempty"`
}

type createExportResponse struct {
	JobID int64  `json:"job_id"`
	Path  string `json:"path"`
}

func (h *ExportsHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req createExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	var jobType, ext string
	switch req.Format {
	case "csv":
		jobType, ext = jobs.TypeExportCSV, "csv"
	case "json":
		jobType, ext = jobs.TypeExportJSON, "json"
	default:
		http.Error(w, "format must be csv or json", http.StatusBadRequest)
		return
	}

	path := req.Path
	if path == "" {
		name := fmt.Sprintf("accounts_%s.%s", time.Now().UTC().Format("20060102_150405"), ext)
		path = filepath.Join(h.exportDir, name)
	}

	payload, err := json.Marshal(jobs.ExportPayload{Path: path})
	if err != nil {
		http.Error(w, "failed to build export job", http.StatusInternalServerError)
		return
	}

	id, err := h.jobsRepo.Enqueue(r.Context(), &jobs.Job{Type: jobType, Payload: payload, Priority: 100, MaxAttempts: 3})
	if err != nil {
		http.Error(w, "failed to enqueue export", http.StatusInternalServerError)
		return
	}

	writeJSON(w, createExportResponse{JobID: id, Path: path}, http.StatusAccepted)
}

func (h *ExportsHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.jobsRepo.GetJob(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, job, http.StatusOK)
}
