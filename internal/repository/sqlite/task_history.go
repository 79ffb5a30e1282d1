package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/reftrack/reftrack/pkg/models"
)

// RecordTaskCompletion appends one immutable history entry. It is independent
// of whether an account row exists for the email.
func (r *SQLiteRepo) RecordTaskCompletion(ctx context.Context, email, taskType string, xpEarned int64, details map[string]any) (int64, error) {
	if email == "" || taskType == "" {
		return 0, fmt.Errorf("task completion needs email and task type")
	}

	var detailsJSON any
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return 0, fmt.Errorf("marshal task details: %w", err)
		}
		detailsJSON = string(b)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO task_history (email, task_type, xp_earned, completed_at, details) VALUES (?, ?, ?, ?, ?)`,
		email, taskType, xpEarned, now(), detailsJSON)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListTaskHistory(ctx context.Context, email string) ([]models.TaskHistoryEntry, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, email, task_type, xp_earned, completed_at, details FROM task_history WHERE email = ? ORDER BY completed_at DESC, id DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TaskHistoryEntry
	for rows.Next() {
		var e models.TaskHistoryEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Email, &e.TaskType, &e.XPEarned, &e.CompletedAt, &details); err != nil {
			return nil, err
		}

		if details.Valid {
			e.Details = &details.String
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
