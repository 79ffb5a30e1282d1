package sqlite

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/reftrack/reftrack/pkg/models"
)

// exportEnvelope is the JSON export document shape. scripts/db_restore reads
// the same shape back.
type exportEnvelope struct {
	ExportedAt    string           `json:"exported_at"`
	TotalAccounts int              `json:"total_accounts"`
	Accounts      []models.Account `json:"accounts"`
}

// ExportCSV writes the full account listing to path, creating missing parent
// directories. The header row follows the store's natural column order.
func (r *SQLiteRepo) ExportCSV(ctx context.Context, path string) (int, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts for export: %w", err)
	}

	f, err := createExportFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := strings.Split(accountColumns, ", ")
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for _, a := range accounts {
		record := []string{
			strconv.FormatInt(a.ID, 10),
			a.Email,
			a.Password,
			a.ReferralCode,
			strconv.FormatInt(a.CreatedAt, 10),
			strconv.FormatBool(a.Verified),
			optString(a.VerificationCode),
			strconv.FormatInt(a.Points, 10),
			optInt(a.LastTaskRun),
			a.Status,
			optString(a.Cookies),
			optString(a.Notes),
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}

	r.logger.Info("accounts exported", slog.String("path", path), slog.Int("count", len(accounts)), slog.String("format", "csv"))
	return len(accounts), nil
}

// ExportJSON writes the full account listing wrapped in the export envelope.
func (r *SQLiteRepo) ExportJSON(ctx context.Context, path string) (int, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts for export: %w", err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	doc := exportEnvelope{
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		TotalAccounts: len(accounts),
		Accounts:      accounts,
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal export: %w", err)
	}

	f, err := createExportFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}

	r.logger.Info("accounts exported", slog.String("path", path), slog.Int("count", len(accounts)), slog.String("format", "json"))
	return len(accounts), nil
}

func createExportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}

	return f, nil
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
