package sqlite

import (
	"context"
	"database/sql"

	"github.com/reftrack/reftrack/pkg/models"
)

func (r *SQLiteRepo) GetTaskXP(ctx context.Context, taskType string) (int64, bool, error) {
	row := r.conn.QueryRow(ctx, `SELECT xp FROM task_catalog WHERE task_type = ?`, taskType)
	var xp int64
	if err := row.Scan(&xp); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}

		return 0, false, err
	}

	return xp, true, nil
}

func (r *SQLiteRepo) ListTaskCatalog(ctx context.Context) ([]models.TaskCatalogEntry, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, task_type, xp, label FROM task_catalog ORDER BY task_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TaskCatalogEntry
	for rows.Next() {
		var e models.TaskCatalogEntry
		if err := rows.Scan(&e.ID, &e.TaskType, &e.XP, &e.Label); err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// PutCatalogEntry inserts or updates the XP value for a task type.
func (r *SQLiteRepo) PutCatalogEntry(ctx context.Context, taskType string, xp int64, label string) (int64, error) {
	res, err := r.conn.Exec(ctx, `INSERT INTO task_catalog (task_type, xp, label) VALUES (?, ?, ?) ON CONFLICT(task_type) DO UPDATE SET xp=excluded.xp, label=excluded.label`, taskType, xp, label)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}
