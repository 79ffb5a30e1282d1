package models

// Domain models matching the database schema in db/migrations/0001_init.sql.
// Timestamps are Unix seconds, UTC.

type Account struct {
	ID               int64   `json:"id" db:"id"`
	Email            string  `json:"email" db:"email" validate:"required,email"`
	Password         string  `json:"password,omitempty" db:"password"` // sealed blob, never cleartext
	ReferralCode     string  `json:"referral_code" db:"referral_code"`
	CreatedAt        int64   `json:"created_at" db:"created_at"`
	Verified         bool    `json:"verified" db:"verified"`
	VerificationCode *string `json:"verification_code,omitempty" db:"verification_code"`
	Points           int64   `json:"points" db:"points"`
	LastTaskRun      *int64  `json:"last_task_run,omitempty" db:"last_task_run"`
	Status           string  `json:"status" db:"status"`
	Cookies          *string `json:"cookies,omitempty" db:"cookies"`
	Notes            *string `json:"notes,omitempty" db:"notes"`
}

// StatusActive is the only status the maintenance queries select for.
const StatusActive = "active"

type TaskHistoryEntry struct {
	ID          int64   `json:"id" db:"id"`
	Email       string  `json:"email" db:"email"`
	TaskType    string  `json:"task_type" db:"task_type"`
	XPEarned    int64   `json:"xp_earned" db:"xp_earned"`
	CompletedAt int64   `json:"completed_at" db:"completed_at"`
	Details     *string `json:"details,omitempty" db:"details"`
}

type TaskCatalogEntry struct {
	ID       int64  `json:"id" db:"id"`
	TaskType string `json:"task_type" db:"task_type"`
	XP       int64  `json:"xp" db:"xp"`
	Label    string `json:"label" db:"label"`
}

// Stats is the aggregate the dashboard consumes.
type Stats struct {
	TotalAccounts    int64           `json:"total_accounts"`
	VerifiedAccounts int64           `json:"verified_accounts"`
	PendingAccounts  int64           `json:"pending_accounts"`
	TotalPoints      int64           `json:"total_points"`
	VerificationRate float64         `json:"verification_rate"`
	ReferralStats    []ReferralCount `json:"referral_stats"`
}

// ReferralCount is one bucket of the referral-code histogram.
type ReferralCount struct {
	Code  string `json:"code"`
	Count int64  `json:"count"`
}
