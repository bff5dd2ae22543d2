package findings

import (
	"context"
	"time"
)

// Filter is a conjunction of optional equality filters; zero values
// match everything.
type Filter struct {
	Severity Severity
	Status   Status
	RepoName string
}

// Repository port (interface for persistence)
type Repository interface {
	// Insert stores a new finding and returns the storage sequence number.
	Insert(ctx context.Context, f *Finding) (int64, error)

	// UpdateStatus sets status and updated_at, sets submitted_at exactly
	// once when status becomes submitted, and preserves prior notes when
	// notes is nil.
	UpdateStatus(ctx context.Context, findingID string, status Status, notes *string, now time.Time) error

	// List returns findings matching the filter, created_at descending.
	List(ctx context.Context, filter Filter, limit int) ([]*Finding, error)

	GetByID(ctx context.Context, findingID string) (*Finding, error)

	// PendingAbove returns pending findings at or above min severity,
	// ordered by severity rank then confidence descending.
	PendingAbove(ctx context.Context, min Severity) ([]*Finding, error)

	Statistics(ctx context.Context, now time.Time) (*Statistics, error)
}
