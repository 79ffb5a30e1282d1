package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/reftrack/reftrack/internal/credentials"
	"github.com/reftrack/reftrack/pkg/models"
	"github.com/reftrack/reftrack/pkg/repository"
)

// AccountsHandler exposes the store to the two collaborator flows and the
// dashboard: the signup flow saves accounts, the task runner picks targets
// and reports completions, the dashboard reads.
type AccountsHandler struct {
	accounts        repository.AccountRepo
	history         repository.TaskHistoryRepo
	catalog         repository.CatalogRepo
	codec           *credentials.Codec
	defaultReferral string
	taskWindowHours int
}

func NewAccountsHandler(ar repository.AccountRepo, hr repository.TaskHistoryRepo, cr repository.CatalogRepo, codec *credentials.Codec, defaultReferral string, taskWindowHours int) *AccountsHandler {
	return &AccountsHandler{
		accounts:        ar,
		history:         hr,
		catalog:         cr,
		codec:           codec,
		defaultReferral: defaultReferral,
		taskWindowHours: taskWindowHours,
	}
}

type saveAccountRequest struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	ReferralCode     string  `json:"referral_code"`
	Verified         bool    `json:"verified"`
	VerificationCode *string `json:"verification_code,omitempty"`
	Cookies          *string `json:"cookies,omitempty"`
}

type saveAccountResponse struct {
	Saved bool   `json:"saved"`
	Email string `json:"email"`
}

// SaveAccount is the account-creation flow's one save call. The password is
// sealed before it reaches the store; the row is replaced whole when the
// email already exists.
func (h *AccountsHandler) SaveAccount(w http.ResponseWriter, r *http.Request) {
	var req saveAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}
	if req.ReferralCode == "" {
		req.ReferralCode = h.defaultReferral
	}
	if req.ReferralCode == "" {
		http.Error(w, "missing referral code", http.StatusBadRequest)
		return
	}

	sealed, err := h.codec.Seal(req.Password)
	if err != nil {
		http.Error(w, "failed to seal credentials", http.StatusInternalServerError)
		return
	}

	a := &models.Account{
		Email:            req.Email,
		Password:         sealed,
		ReferralCode:     req.ReferralCode,
		Verified:         req.Verified,
		VerificationCode: req.VerificationCode,
		Cookies:          req.Cookies,
	}
	if !h.accounts.UpsertAccount(r.Context(), a) {
		writeJSON(w, saveAccountResponse{Saved: false, Email: req.Email}, http.StatusInternalServerError)
		return
	}

	writeJSON(w, saveAccountResponse{Saved: true, Email: req.Email}, http.StatusCreated)
}

func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() ([]models.Account, error) {
		return h.accounts.ListAccounts(r.Context())
	})
}

func (h *AccountsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() ([]models.Account, error) {
		return h.accounts.ListPending(r.Context())
	})
}

func (h *AccountsHandler) ListVerifiedActive(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() ([]models.Account, error) {
		return h.accounts.ListVerifiedActive(r.Context())
	})
}

// ListDue serves the task runner's target selection. The freshness window
// defaults to the configured value; callers may narrow or widen it.
func (h *AccountsHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	hours := h.taskWindowHours
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			http.Error(w, "invalid hours", http.StatusBadRequest)
			return
		}
		hours = n
	}

	h.respondList(w, r, func() ([]models.Account, error) {
		return h.accounts.ListDueForTasks(r.Context(), hours)
	})
}

func (h *AccountsHandler) respondList(w http.ResponseWriter, r *http.Request, list func() ([]models.Account, error)) {
	accounts, err := list()
	if err != nil {
		http.Error(w, "failed to list accounts", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	resp := map[string]any{
		"total": len(accounts),
		"items": redactAccounts(accounts),
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	a, err := h.accounts.GetAccountByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, "failed to get account", http.StatusInternalServerError)
		return
	}
	if a == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	a.Password = ""
	writeJSON(w, a, http.StatusOK)
}

func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), email); err != nil {
		http.Error(w, "failed to delete account", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountsHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	entries, err := h.history.ListTaskHistory(r.Context(), email)
	if err != nil {
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.TaskHistoryEntry{}
	}

	writeJSON(w, map[string]any{"total": len(entries), "items": entries}, http.StatusOK)
}

type accruePointsRequest struct {
	Email    string         `json:"email"`
	TaskType string         `json:"task_type"`
	XPEarned *int64         `json:"xp_earned,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

type accruePointsResponse struct {
	Email    string `json:"email"`
	TaskType string `json:"task_type"`
	XPEarned int64  `json:"xp_earned"`
}

// AccruePoints is the task flow's save call: credit points, stamp the run,
// append the history entry. Unknown accounts are a 404, not a silent no-op.
func (h *AccountsHandler) AccruePoints(w http.ResponseWriter, r *http.Request) {
	var req accruePointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.TaskType == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	xp := int64(0)
	if req.XPEarned != nil {
		xp = *req.XPEarned
	} else {
		v, found, err := h.catalog.GetTaskXP(r.Context(), req.TaskType)
		if err != nil {
			http.Error(w, "failed to resolve task xp", http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "unknown task type", http.StatusBadRequest)
			return
		}
		xp = v
	}
	if xp < 0 {
		http.Error(w, "xp_earned must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.accounts.AccruePoints(r.Context(), req.Email, xp); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to accrue points", http.StatusInternalServerError)
		return
	}

	if _, err := h.history.RecordTaskCompletion(r.Context(), req.Email, req.TaskType, xp, req.Details); err != nil {
		// points are already credited; report but do not roll back
		logger.Error("record task completion", "email", req.Email, "err", err)
	}

	writeJSON(w, accruePointsResponse{Email: req.Email, TaskType: req.TaskType, XPEarned: xp}, http.StatusOK)
}

func (h *AccountsHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListTaskCatalog(r.Context())
	if err != nil {
		http.Error(w, "failed to list task catalog", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.TaskCatalogEntry{}
	}

	writeJSON(w, map[string]any{"total": len(entries), "items": entries}, http.StatusOK)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

// redactAccounts strips sealed credential blobs from listing responses.
func redactAccounts(accounts []models.Account) []models.Account {
	out := make([]models.Account, len(accounts))
	copy(out, accounts)
	for i := range out {
		out[i].Password = ""
	}
	return out
}
