package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"log/slog"

	"github.com/reftrack/reftrack/pkg/models"
	"github.com/reftrack/reftrack/pkg/repository"
)

// UpsertAccount saves one account. INSERT OR REPLACE keeps email unique with
// last-writer-wins semantics: an existing row is replaced whole, and columns
// not carried by the save (created_at, points, last_task_run, status, notes)
// revert to their schema defaults. Storage failures are logged and reported
// as false.
func (r *SQLiteRepo) UpsertAccount(ctx context.Context, a *models.Account) bool {
	if a == nil || a.Email == "" {
		r.logger.Error("upsert account: missing email")
		return false
	}

	_, err := r.conn.Exec(ctx, `INSERT OR REPLACE INTO accounts (email, password, referral_code, verified, verification_code, cookies) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Email, a.Password, a.ReferralCode, a.Verified, a.VerificationCode, a.Cookies)
	if err != nil {
		r.logger.Error("upsert account", slog.String("email", a.Email), slog.Any("err", err))
		return false
	}

	r.logger.Info("account saved", slog.String("email", a.Email))
	return true
}

func (r *SQLiteRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return a, nil
}

func (r *SQLiteRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return r.listAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
}

func (r *SQLiteRepo) ListVerifiedActive(ctx context.Context) ([]models.Account, error) {
	return r.listAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE verified = 1 AND status = ?`, models.StatusActive)
}

func (r *SQLiteRepo) ListPending(ctx context.Context) ([]models.Account, error) {
	return r.listAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE verified = 0`)
}

// ListDueForTasks filters verified active accounts whose last task run is
// unset or older than hoursSince hours. Scheduling is the caller's problem.
func (r *SQLiteRepo) ListDueForTasks(ctx context.Context, hoursSince int) ([]models.Account, error) {
	if hoursSince <= 0 {
		hoursSince = 20
	}
	cutoff := time.Now().UTC().Add(-time.Duration(hoursSince) * time.Hour).Unix()

	return r.listAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE verified = 1 AND status = ? AND (last_task_run IS NULL OR last_task_run < ?)`, models.StatusActive, cutoff)
}

func (r *SQLiteRepo) listAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}

	return out, rows.Err()
}

// AccruePoints atomically adds delta to points and stamps last_task_run.
// A missing email is an explicit repository.ErrAccountNotFound, not a no-op.
func (r *SQLiteRepo) AccruePoints(ctx context.Context, email string, delta int64) error {
	res, err := r.conn.Exec(ctx, `UPDATE accounts SET points = points + ?, last_task_run = ? WHERE email = ?`, delta, now(), email)
	if err != nil {
		return fmt.Errorf("accrue points for %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accrue points rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrAccountNotFound
	}

	r.logger.Info("points accrued", slog.String("email", email), slog.Int64("delta", delta))
	return nil
}

// DeleteAccount removes the account row and all of its task history in one
// transaction.
func (r *SQLiteRepo) DeleteAccount(ctx context.Context, email string) error {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE email = ?`, email); err != nil {
		return fmt.Errorf("delete account %s: %w", email, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_history WHERE email = ?`, email); err != nil {
		return fmt.Errorf("delete task history for %s: %w", email, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete for %s: %w", email, err)
	}

	r.logger.Info("account deleted", slog.String("email", email))
	return nil
}
