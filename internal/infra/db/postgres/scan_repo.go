package postgres

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Append insert/replace keyed by scan_id
func (r *ScanRepository) Append(ctx context.Context, run *domain.Run) error {
	if !run.Status.Valid() {
		return fmt.Errorf("scan %s: invalid status %q", run.ScanID, run.Status)
	}

	const q = `
INSERT INTO scan_history
(scan_id, repo_name, scan_date, semgrep_findings, cargo_vulnerabilities,
 llm_findings, files_scanned, lines_scanned, duration_seconds, status, error_message)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (scan_id) DO UPDATE SET
 status = EXCLUDED.status,
 semgrep_findings = EXCLUDED.semgrep_findings,
 cargo_vulnerabilities = EXCLUDED.cargo_vulnerabilities,
 llm_findings = EXCLUDED.llm_findings,
 files_scanned = EXCLUDED.files_scanned,
 lines_scanned = EXCLUDED.lines_scanned,
 duration_seconds = EXCLUDED.duration_seconds,
 error_message = EXCLUDED.error_message;`

	_, err := r.db.ExecContext(ctx, q,
		run.ScanID, run.RepoName, run.ScanDate,
		run.SemgrepFindings, run.CargoVulnerabilities, run.LLMFindings,
		run.FilesScanned, run.LinesScanned, run.DurationSeconds,
		run.Status, run.ErrorMessage,
	)
	return err
}

// ListByRepo returns the latest runs for one repository.
func (r *ScanRepository) ListByRepo(ctx context.Context, repoName string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, scan_id, repo_name, scan_date, semgrep_findings, cargo_vulnerabilities,
       llm_findings, files_scanned, lines_scanned, duration_seconds, status, error_message
FROM scan_history
WHERE repo_name=$1 ORDER BY scan_date DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, repoName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		var errMsg sql.NullString
		if err := rows.Scan(
			&run.Seq, &run.ScanID, &run.RepoName, &run.ScanDate,
			&run.SemgrepFindings, &run.CargoVulnerabilities, &run.LLMFindings,
			&run.FilesScanned, &run.LinesScanned, &run.DurationSeconds,
			&run.Status, &errMsg,
		); err != nil {
			return nil, err
		}
		run.ErrorMessage = errMsg.String
		out = append(out, &run)
	}
	return out, rows.Err()
}
