// Package history persists a ledger of past pipeline runs to Postgres so the
// summarize command can serve a cached Report instead of recomputing one,
// unless --force is given. It is strictly optional: HistoryConfig.Enabled
// gates whether a Store is constructed at all.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/db"
)

// Store records and retrieves Report snapshots keyed by (repository, pr).
type Store interface {
	SaveRun(ctx context.Context, report *core.Report) error
	LatestRun(ctx context.Context, repo string, pr int) (*core.Report, error)
}

type store struct {
	db *db.DB
}

// New wraps a DB connection with the run-history Store contract.
func New(database *db.DB) Store {
	return &store{db: database}
}

func (s *store) SaveRun(ctx context.Context, report *core.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for history: %w", err)
	}

	const q = `
		INSERT INTO run_history
			(repository, pr_number, head_sha, base_sha, degraded, cancelled,
			 severity_high, severity_medium, severity_low, avg_confidence,
			 report_json, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.db.ExecContext(ctx, q,
		report.PR.Repository, report.PR.Number, report.PR.HeadSHA, report.PR.BaseSHA,
		report.Degraded, report.Cancelled,
		report.SeverityCounts.High, report.SeverityCounts.Medium, report.SeverityCounts.Low,
		report.AverageConfidence, payload, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run history: %w", err)
	}
	return nil
}

func (s *store) LatestRun(ctx context.Context, repo string, pr int) (*core.Report, error) {
	const q = `
		SELECT report_json FROM run_history
		WHERE repository = $1 AND pr_number = $2
		ORDER BY generated_at DESC
		LIMIT 1`

	var payload []byte
	if err := s.db.GetContext(ctx, &payload, q, repo, pr); err != nil {
		return nil, fmt.Errorf("failed to load run history for %s#%d: %w", repo, pr, err)
	}

	var report core.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored report: %w", err)
	}
	return &report, nil
}

// StalenessWindow bounds how long a cached Report is considered current;
// summarize reruns the pipeline instead of serving a cached Report older
// than this.
const StalenessWindow = 24 * time.Hour
