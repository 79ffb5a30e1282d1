package sqlite

import (
	"context"
	"fmt"

	"github.com/reftrack/reftrack/pkg/models"
)

// ComputeStats aggregates the dashboard numbers in one pass over the accounts
// table plus the referral-code histogram.
func (r *SQLiteRepo) ComputeStats(ctx context.Context) (*models.Stats, error) {
	var s models.Stats

	row := r.conn.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN verified = 1 THEN 1 ELSE 0 END), 0), COALESCE(SUM(points), 0) FROM accounts`)
	if err := row.Scan(&s.TotalAccounts, &s.VerifiedAccounts, &s.TotalPoints); err != nil {
		return nil, fmt.Errorf("aggregate accounts: %w", err)
	}
	s.PendingAccounts = s.TotalAccounts - s.VerifiedAccounts

	// guard against division by zero on an empty store
	if s.TotalAccounts > 0 {
		s.VerificationRate = float64(s.VerifiedAccounts) / float64(s.TotalAccounts) * 100
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT referral_code, COUNT(*) AS count FROM accounts GROUP BY referral_code ORDER BY count DESC, referral_code`)
	if err != nil {
		return nil, fmt.Errorf("referral histogram: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rc models.ReferralCount
		if err := rows.Scan(&rc.Code, &rc.Count); err != nil {
			return nil, err
		}
		s.ReferralStats = append(s.ReferralStats, rc)
	}

	return &s, rows.Err()
}
