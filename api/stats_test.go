package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reftrack/reftrack/api"
	"github.com/reftrack/reftrack/pkg/models"
	"github.com/reftrack/reftrack/pkg/repository/mock"
)

func TestGetStats(t *testing.T) {
	mocks := mock.NewMocks()
	handler := api.NewStatsHandler(mocks.Stats, mocks.Accounts)

	mocks.Stats.Result = &models.Stats{
		TotalAccounts:    4,
		VerifiedAccounts: 3,
		PendingAccounts:  1,
		TotalPoints:      42,
		VerificationRate: 75,
		ReferralStats:    []models.ReferralCount{{Code: "REFA", Count: 3}, {Code: "REFB", Count: 1}},
	}
	for _, email := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		mocks.Accounts.UpsertAccount(nil, &models.Account{Email: email + "@example.com", Password: "blob", ReferralCode: "REFA"})
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}

	var sr struct {
		models.Stats
		RecentAccounts []models.Account `json:"recent_accounts"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if sr.TotalAccounts != 4 || sr.VerificationRate != 75 {
		t.Fatalf("unexpected stats: %#v", sr.Stats)
	}
	if len(sr.ReferralStats) != 2 || sr.ReferralStats[0].Code != "REFA" {
		t.Fatalf("unexpected referral stats: %#v", sr.ReferralStats)
	}
	// recent listing caps at five and never carries credential blobs
	if len(sr.RecentAccounts) != 5 {
		t.Fatalf("expected 5 recent accounts got %d", len(sr.RecentAccounts))
	}
	for _, a := range sr.RecentAccounts {
		if a.Password != "" {
			t.Fatalf("recent listing leaked credential blob for %s", a.Email)
		}
	}
}
