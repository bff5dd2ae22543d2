package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/repos"
)

type RepoRepository struct {
	db *sql.DB
}

func NewRepoRepository(db *sql.DB) *RepoRepository {
	return &RepoRepository{db: db}
}

// Upsert insert/update keyed by repo_name
func (r *RepoRepository) Upsert(ctx context.Context, rec *domain.Repository) error {
	status := rec.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !status.Valid() {
		return fmt.Errorf("repository %s: invalid status %q", rec.RepoName, status)
	}
	// created_at is insert-only; the caller supplies it from its clock
	if rec.CreatedAt.IsZero() {
		return fmt.Errorf("repository %s: created_at is required", rec.RepoName)
	}

	const q = `
INSERT INTO repositories
(repo_name, repo_url, owner, stars, forks, audit_priority, last_scan_id, last_scan_date, total_findings, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (repo_name) DO UPDATE SET
 repo_url = EXCLUDED.repo_url,
 owner = EXCLUDED.owner,
 stars = EXCLUDED.stars,
 forks = EXCLUDED.forks,
 audit_priority = EXCLUDED.audit_priority,
 last_scan_id = EXCLUDED.last_scan_id,
 last_scan_date = EXCLUDED.last_scan_date,
 status = EXCLUDED.status;`

	var lastScan any
	if rec.LastScanDate != nil {
		lastScan = *rec.LastScanDate
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.RepoName, rec.RepoURL, rec.Owner, rec.Stars, rec.Forks, rec.AuditPriority,
		rec.LastScanID, lastScan, rec.TotalFindings, status, rec.CreatedAt,
	)
	return err
}

// Get by repo_name
func (r *RepoRepository) Get(ctx context.Context, repoName string) (*domain.Repository, error) {
	const q = `
SELECT id, repo_name, repo_url, owner, stars, forks, audit_priority,
       last_scan_id, last_scan_date, total_findings, status, created_at
FROM repositories
WHERE repo_name=$1 LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, repoName)

	var rec domain.Repository
	var lastScan sql.NullTime
	err := row.Scan(
		&rec.Seq, &rec.RepoName, &rec.RepoURL, &rec.Owner, &rec.Stars, &rec.Forks, &rec.AuditPriority,
		&rec.LastScanID, &lastScan, &rec.TotalFindings, &rec.Status, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository %s: %w", repoName, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if lastScan.Valid {
		t := lastScan.Time
		rec.LastScanDate = &t
	}
	return &rec, nil
}

// RecordScan bumps scan linkage on an existing row. Zero rows affected
// is fine: the repository reference from a scan is soft.
func (r *RepoRepository) RecordScan(ctx context.Context, repoName, scanID string, at time.Time, findings int) error {
	const q = `
UPDATE repositories
SET last_scan_id = $1,
    last_scan_date = $2,
    total_findings = total_findings + $3
WHERE repo_name = $4;`
	_, err := r.db.ExecContext(ctx, q, scanID, at, findings, repoName)
	return err
}
