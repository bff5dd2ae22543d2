package mysql

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
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status),
 semgrep_findings=VALUES(semgrep_findings),
 cargo_vulnerabilities=VALUES(cargo_vulnerabilities),
 llm_findings=VALUES(llm_findings),
 files_scanned=VALUES(files_scanned),
 lines_scanned=VALUES(lines_scanned),
 duration_seconds=VALUES(duration_seconds),
 error_message=VALUES(error_message);
`
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
WHERE repo_name=? ORDER BY scan_date DESC LIMIT ?;`
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
