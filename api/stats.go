package api

import (
	"net/http"

	"github.com/reftrack/reftrack/pkg/models"
	"github.com/reftrack/reftrack/pkg/repository"
)

type StatsHandler struct {
	stats    repository.StatsRepo
	accounts repository.AccountRepo
}

func NewStatsHandler(sr repository.StatsRepo, ar repository.AccountRepo) *StatsHandler {
	return &StatsHandler{stats: sr, accounts: ar}
}

type statsResponse struct {
	*models.Stats
	RecentAccounts []models.Account `json:"recent_accounts"`
}

// GetStats returns the aggregates plus the five most recent accounts, the
// same summary the old dashboard printed.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.ComputeStats(r.Context())
	if err != nil {
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	if stats.ReferralStats == nil {
		stats.ReferralStats = []models.ReferralCount{}
	}

	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		http.Error(w, "failed to list accounts", http.StatusInternalServerError)
		return
	}
	if len(accounts) > 5 {
		accounts = accounts[:5]
	}

	writeJSON(w, statsResponse{Stats: stats, RecentAccounts: redactAccounts(accounts)}, http.StatusOK)
}
