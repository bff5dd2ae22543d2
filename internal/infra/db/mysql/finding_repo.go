package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

type FindingRepository struct {
	db *sql.DB
}

func NewFindingRepository(db *sql.DB) *FindingRepository {
	return &FindingRepository{db: db}
}

const findingColumns = `id, finding_id, repo_name, repo_url, repo_owner, file_path, line_number,
 vulnerability_type, title, description, severity, impact, recommendation, code_snippet,
 status, confidence, analyzer, scan_id, created_at, updated_at, submitted_at,
 bounty_platform, bounty_url, bounty_amount, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFinding(row rowScanner) (*domain.Finding, error) {
	var f domain.Finding
	var submitted sql.NullTime
	if err := row.Scan(
		&f.Seq, &f.FindingID, &f.RepoName, &f.RepoURL, &f.RepoOwner, &f.FilePath, &f.LineNumber,
		&f.VulnerabilityType, &f.Title, &f.Description, &f.Severity, &f.Impact, &f.Recommendation, &f.CodeSnippet,
		&f.Status, &f.Confidence, &f.Analyzer, &f.ScanID, &f.CreatedAt, &f.UpdatedAt, &submitted,
		&f.BountyPlatform, &f.BountyURL, &f.BountyAmount, &f.Notes,
	); err != nil {
		return nil, err
	}
	if submitted.Valid {
		t := submitted.Time
		f.SubmittedAt = &t
	}
	return &f, nil
}

// Insert stores a new finding row and returns the auto-increment id.
func (r *FindingRepository) Insert(ctx context.Context, f *domain.Finding) (int64, error) {
	if !f.Severity.Valid() {
		return 0, fmt.Errorf("finding %s: %w: %q", f.FindingID, domain.ErrInvalidSeverity, f.Severity)
	}
	if !f.Status.Valid() {
		return 0, fmt.Errorf("finding %s: %w: %q", f.FindingID, domain.ErrInvalidStatus, f.Status)
	}

	const q = `
INSERT INTO findings
(finding_id, repo_name, repo_url, repo_owner, file_path, line_number,
 vulnerability_type, title, description, severity, impact, recommendation, code_snippet,
 status, confidence, analyzer, scan_id, created_at, updated_at,
 bounty_platform, bounty_url, bounty_amount, notes)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	res, err := r.db.ExecContext(ctx, q,
		f.FindingID, f.RepoName, f.RepoURL, f.RepoOwner, f.FilePath, f.LineNumber,
		f.VulnerabilityType, f.Title, f.Description, f.Severity, f.Impact, f.Recommendation, f.CodeSnippet,
		f.Status, f.Confidence, f.Analyzer, f.ScanID, f.CreatedAt, f.UpdatedAt,
		f.BountyPlatform, f.BountyURL, f.BountyAmount, f.Notes,
	)
	if err != nil {
		var me *gomysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, fmt.Errorf("finding %s: %w", f.FindingID, domain.ErrDuplicateID)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateStatus always bumps updated_at, sets submitted_at only when the
// row first enters submitted, and preserves prior notes when notes is nil.
func (r *FindingRepository) UpdateStatus(ctx context.Context, findingID string, status domain.Status, notes *string, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("finding %s: %w: %q", findingID, domain.ErrInvalidStatus, status)
	}

	var exists string
	err := r.db.QueryRowContext(ctx,
		`SELECT finding_id FROM findings WHERE finding_id=? LIMIT 1;`, findingID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("finding %s: %w", findingID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}

	// submitted_at is written through COALESCE so it is set exactly once
	// and never cleared by later transitions.
	var submitted any
	if status == domain.StatusSubmitted {
		submitted = now
	}
	const q = `
UPDATE findings
SET status = ?,
    updated_at = ?,
    submitted_at = COALESCE(submitted_at, ?),
    notes = COALESCE(?, notes)
WHERE finding_id = ?;`
	_, err = r.db.ExecContext(ctx, q, status, now, submitted, notes, findingID)
	return err
}

// List returns findings matching the conjunction of filters, newest first.
func (r *FindingRepository) List(ctx context.Context, filter domain.Filter, limit int) ([]*domain.Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE 1=1`
	var args []any

	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.RepoName != "" {
		query += " AND repo_name = ?"
		args = append(args, filter.RepoName)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var out []*domain.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetByID returns one finding by finding_id.
func (r *FindingRepository) GetByID(ctx context.Context, findingID string) (*domain.Finding, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+findingColumns+` FROM findings WHERE finding_id=? LIMIT 1;`, findingID)
	f, err := scanFinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finding %s: %w", findingID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// PendingAbove lists pending findings at or above min severity, ranked
// Critical first and tie-broken by confidence descending.
func (r *FindingRepository) PendingAbove(ctx context.Context, min domain.Severity) ([]*domain.Finding, error) {
	allowed := domain.SeveritiesAtOrAbove(min)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(allowed)), ",")

	args := make([]any, 0, len(allowed))
	for _, sev := range allowed {
		args = append(args, sev)
	}

	query := `
SELECT ` + findingColumns + `
FROM findings
WHERE status = 'pending' AND severity IN (` + placeholders + `)
ORDER BY
  CASE severity
    WHEN 'Critical' THEN 1
    WHEN 'High' THEN 2
    WHEN 'Medium' THEN 3
    WHEN 'Low' THEN 4
    ELSE 5
  END,
  confidence DESC;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending findings: %w", err)
	}
	defer rows.Close()

	var out []*domain.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Statistics aggregates the findings table.
func (r *FindingRepository) Statistics(ctx context.Context, now time.Time) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		BySeverity: make(map[string]int),
		ByStatus:   make(map[string]int),
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM findings;`).Scan(&stats.TotalFindings); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx,
		`SELECT severity, COUNT(*) FROM findings GROUP BY severity;`, stats.BySeverity); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx,
		`SELECT status, COUNT(*) FROM findings GROUP BY status;`, stats.ByStatus); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT repo_name, COUNT(*) AS count
FROM findings
GROUP BY repo_name
ORDER BY count DESC
LIMIT 10;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc domain.RepoCount
		if err := rows.Scan(&rc.RepoName, &rc.Count); err != nil {
			return nil, err
		}
		stats.TopRepos = append(stats.TopRepos, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cut := now.AddDate(0, 0, -7)
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM findings WHERE created_at > ?;`, cut).Scan(&stats.RecentFindings); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM findings WHERE status IN ('submitted','confirmed','paid');`).Scan(&stats.Submissions); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(bounty_amount), 0) FROM findings WHERE status = 'paid';`).Scan(&stats.TotalEarnings); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *FindingRepository) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}
