package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reftrack/reftrack/pkg/repository"
)

// ExportHandlers wires the export job types to the store's exporters.
func ExportHandlers(exp repository.ExportRepo) map[string]Handler {
	run := func(ctx context.Context, j *Job, export func(context.Context, string) (int, error)) error {
		var p ExportPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode export payload: %w", err)
		}
		if p.Path == "" {
			return fmt.Errorf("export payload missing path")
		}

		_, err := export(ctx, p.Path)
		return err
	}

	return map[string]Handler{
		TypeExportCSV: func(ctx context.Context, j *Job) error {
			return run(ctx, j, exp.ExportCSV)
		},
		TypeExportJSON: func(ctx context.Context, j *Job) error {
			return run(ctx, j, exp.ExportJSON)
		},
	}
}
