package repository

import (
	"context"
	"errors"

	"github.com/reftrack/reftrack/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers (the signup flow, the task runner, the dashboard) should depend
// on; concrete implementations live under internal/.

// ErrAccountNotFound is returned by AccruePoints when no account row matches
// the email. The store never treats a missing row as a silent success.
var ErrAccountNotFound = errors.New("account not found")

type AccountRepo interface {
	// UpsertAccount saves the account, fully replacing any existing row with
	// the same email. Columns not carried by the save (created_at, points,
	// last_task_run, status, notes) revert to their schema defaults. Storage
	// failures are logged and reported as false; they never surface as errors.
	UpsertAccount(ctx context.Context, a *models.Account) bool
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListVerifiedActive(ctx context.Context) ([]models.Account, error)
	ListPending(ctx context.Context) ([]models.Account, error)
	// ListDueForTasks selects verified active accounts whose last task run is
	// unset or older than hoursSince hours. It only filters; scheduling
	// belongs to the caller.
	ListDueForTasks(ctx context.Context, hoursSince int) ([]models.Account, error)
	// AccruePoints adds delta to points and stamps last_task_run.
	AccruePoints(ctx context.Context, email string, delta int64) error
	// DeleteAccount removes the account and all of its task history.
	DeleteAccount(ctx context.Context, email string) error
}

type TaskHistoryRepo interface {
	// RecordTaskCompletion appends one history entry. It does not check that
	// the account exists.
	RecordTaskCompletion(ctx context.Context, email, taskType string, xpEarned int64, details map[string]any) (int64, error)
	ListTaskHistory(ctx context.Context, email string) ([]models.TaskHistoryEntry, error)
}

type CatalogRepo interface {
	// GetTaskXP returns the configured XP for a task type; found is false for
	// unknown types.
	GetTaskXP(ctx context.Context, taskType string) (xp int64, found bool, err error)
	ListTaskCatalog(ctx context.Context) ([]models.TaskCatalogEntry, error)
	PutCatalogEntry(ctx context.Context, taskType string, xp int64, label string) (int64, error)
}

type StatsRepo interface {
	ComputeStats(ctx context.Context) (*models.Stats, error)
}

type ExportRepo interface {
	// ExportCSV / ExportJSON serialize the full ListAccounts result to path,
	// creating missing parent directories. They return the number of
	// exported accounts.
	ExportCSV(ctx context.Context, path string) (int, error)
	ExportJSON(ctx context.Context, path string) (int, error)
}
