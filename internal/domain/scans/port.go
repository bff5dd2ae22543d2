package scans

import "context"

// Store port for scan history
type Store interface {
	// Append inserts or replaces the run keyed by scan_id.
	Append(ctx context.Context, r *Run) error

	ListByRepo(ctx context.Context, repoName string, limit int) ([]*Run, error)
}
