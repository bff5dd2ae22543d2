package repos

import (
	"context"
	"time"
)

// Store port for repository candidates
type Store interface {
	// Upsert inserts or replaces the record keyed by repo_name.
	Upsert(ctx context.Context, r *Repository) error

	Get(ctx context.Context, repoName string) (*Repository, error)

	// RecordScan bumps last_scan_id/last_scan_date and adds to the
	// denormalized findings count. A missing repository is a no-op:
	// the finding->repository reference is soft.
	RecordScan(ctx context.Context, repoName, scanID string, at time.Time, findings int) error
}
