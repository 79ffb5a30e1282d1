package sqlite

import (
	"database/sql"
	"time"

	"log/slog"

	"github.com/reftrack/reftrack/internal/db"
	"github.com/reftrack/reftrack/pkg/models"
	"github.com/reftrack/reftrack/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.AccountRepo = (*SQLiteRepo)(nil)
var _ repository.TaskHistoryRepo = (*SQLiteRepo)(nil)
var _ repository.CatalogRepo = (*SQLiteRepo)(nil)
var _ repository.StatsRepo = (*SQLiteRepo)(nil)
var _ repository.ExportRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().Unix()
}

// accountColumns is the store's natural column order. The CSV export header
// and every account scan follow it.
const accountColumns = `id, email, password, referral_code, created_at, verified, verification_code, points, last_task_run, status, cookies, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var verificationCode, cookies, notes sql.NullString
	var lastTaskRun sql.NullInt64
	if err := row.Scan(&a.ID, &a.Email, &a.Password, &a.ReferralCode, &a.CreatedAt, &a.Verified, &verificationCode, &a.Points, &lastTaskRun, &a.Status, &cookies, &notes); err != nil {
		return nil, err
	}

	if verificationCode.Valid {
		a.VerificationCode = &verificationCode.String
	}
	if lastTaskRun.Valid {
		a.LastTaskRun = &lastTaskRun.Int64
	}
	if cookies.Valid {
		a.Cookies = &cookies.String
	}
	if notes.Valid {
		a.Notes = &notes.String
	}

	return &a, nil
}
