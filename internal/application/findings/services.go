package findings

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/bryanwahyu/bounty-hunter/internal/application"
	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
	domrepos "github.com/bryanwahyu/bounty-hunter/internal/domain/repos"
	domscans "github.com/bryanwahyu/bounty-hunter/internal/domain/scans"
)

const defaultListLimit = 50

// Service implements the finding lifecycle use-cases: ingestion, status
// transitions, filtered queries, and statistics.
type Service struct {
	Repo  domain.Repository
	Repos domrepos.Store
	Scans domscans.Store
	Clock application.Clock
}

// IngestResult carries the assigned identifiers back to the caller.
type IngestResult struct {
	Seq       int64  `json:"seq"`
	FindingID string `json:"finding_id"`
}

// Ingest validates an analyzer result and stores it as a pending finding.
// A missing finding_id is generated deterministically from the ingestion
// date and the truncated repo name; same-day same-repo collisions surface
// as a duplicate-id error.
func (s *Service) Ingest(ctx context.Context, f *domain.Finding) (IngestResult, error) {
	now := s.Clock.Now()

	if f.Status == "" {
		f.Status = domain.StatusPending
	}
	if err := f.Validate(); err != nil {
		return IngestResult{}, err
	}
	if f.FindingID == "" {
		f.FindingID = generateFindingID(now.Format("20060102"), f.RepoName)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = f.CreatedAt

	seq, err := s.Repo.Insert(ctx, f)
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert finding %s: %w", f.FindingID, err)
	}
	return IngestResult{Seq: seq, FindingID: f.FindingID}, nil
}

// UpdateStatus moves a finding to a new workflow status. Out-of-order
// transitions are logged but not refused: the reviewer may override the
// recommended machine.
func (s *Service) UpdateStatus(ctx context.Context, findingID, rawStatus, notes string) error {
	status := domain.Status(rawStatus)
	if !status.Valid() {
		return fmt.Errorf("update %s: %w: %q", findingID, domain.ErrInvalidStatus, rawStatus)
	}

	existing, err := s.Repo.GetByID(ctx, findingID)
	if err != nil {
		return fmt.Errorf("update %s: %w", findingID, err)
	}
	if !domain.CanTransition(existing.Status, status) && existing.Status != status {
		log.Printf("finding %s: out-of-order transition %s -> %s (allowed by override)",
			findingID, existing.Status, status)
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}
	if err := s.Repo.UpdateStatus(ctx, findingID, status, notesPtr, s.Clock.Now()); err != nil {
		return fmt.Errorf("update %s: %w", findingID, err)
	}
	return nil
}

// List returns findings matching the conjunction of the supplied filters,
// newest first. Limit defaults to 50.
func (s *Service) List(ctx context.Context, filter domain.Filter, limit int) ([]*domain.Finding, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.Repo.List(ctx, filter, limit)
}

// Get returns one finding by its finding_id.
func (s *Service) Get(ctx context.Context, findingID string) (*domain.Finding, error) {
	return s.Repo.GetByID(ctx, findingID)
}

// PendingAbove returns pending findings at or above the given severity,
// Critical first, tie-broken by confidence descending. An unparseable
// severity degrades to including everything.
func (s *Service) PendingAbove(ctx context.Context, minSeverity string) ([]*domain.Finding, error) {
	min, err := domain.ParseSeverity(minSeverity)
	if err != nil {
		min = ""
	}
	return s.Repo.PendingAbove(ctx, min)
}

// Statistics computes the aggregate over the findings table.
func (s *Service) Statistics(ctx context.Context) (*domain.Statistics, error) {
	return s.Repo.Statistics(ctx, s.Clock.Now())
}

// RecordScan appends a scan run and bumps the repository's scan linkage.
// The repository row may be absent; the reference is soft.
func (s *Service) RecordScan(ctx context.Context, run *domscans.Run) (string, error) {
	now := s.Clock.Now()
	if run.ScanID == "" {
		run.ScanID = domscans.ScanID("SCAN-" + uuid.New().String())
	}
	if run.ScanDate.IsZero() {
		run.ScanDate = now
	}
	if run.Status == "" {
		run.Status = domscans.StatusCompleted
	}
	if !run.Status.Valid() {
		return "", fmt.Errorf("scan %s: invalid status %q", run.ScanID, run.Status)
	}
	if run.RepoName == "" {
		return "", fmt.Errorf("scan %s: repo_name is required", run.ScanID)
	}

	if err := s.Scans.Append(ctx, run); err != nil {
		return "", fmt.Errorf("append scan %s: %w", run.ScanID, err)
	}
	if err := s.Repos.RecordScan(ctx, run.RepoName, string(run.ScanID), run.ScanDate, run.TotalFindings()); err != nil {
		return "", fmt.Errorf("record scan %s on %s: %w", run.ScanID, run.RepoName, err)
	}
	return string(run.ScanID), nil
}

func generateFindingID(date, repoName string) string {
	name := repoName
	if len(name) > 10 {
		name = name[:10]
	}
	return fmt.Sprintf("FND-%s-%s", date, name)
}
