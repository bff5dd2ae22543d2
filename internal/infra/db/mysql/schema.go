package mysql

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS findings (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  finding_id VARCHAR(191) NOT NULL UNIQUE,
  repo_name VARCHAR(191) NOT NULL,
  repo_url TEXT,
  repo_owner VARCHAR(191),
  file_path TEXT,
  line_number INT NOT NULL DEFAULT 0,
  vulnerability_type VARCHAR(191) NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  severity VARCHAR(16) NOT NULL CHECK(severity IN ('Critical','High','Medium','Low','Informational')),
  impact TEXT,
  recommendation TEXT,
  code_snippet TEXT,
  status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','approved','rejected','submitted','confirmed','paid')),
  confidence DOUBLE NOT NULL DEFAULT 0,
  analyzer VARCHAR(191),
  scan_id VARCHAR(191),
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  submitted_at DATETIME NULL,
  bounty_platform VARCHAR(191),
  bounty_url TEXT,
  bounty_amount DOUBLE NOT NULL DEFAULT 0,
  notes TEXT,
  INDEX idx_findings_severity (severity),
  INDEX idx_findings_status (status),
  INDEX idx_findings_repo (repo_name),
  INDEX idx_findings_type (vulnerability_type)
)`,
	`CREATE TABLE IF NOT EXISTS repositories (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  repo_name VARCHAR(191) NOT NULL UNIQUE,
  repo_url TEXT,
  owner VARCHAR(191),
  stars INT NOT NULL DEFAULT 0,
  forks INT NOT NULL DEFAULT 0,
  audit_priority INT NOT NULL DEFAULT 0,
  last_scan_id VARCHAR(191),
  last_scan_date DATETIME NULL,
  total_findings INT NOT NULL DEFAULT 0,
  status VARCHAR(16) NOT NULL DEFAULT 'active' CHECK(status IN ('active','archived','excluded')),
  created_at DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS scan_history (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  scan_id VARCHAR(191) NOT NULL UNIQUE,
  repo_name VARCHAR(191) NOT NULL,
  scan_date DATETIME NOT NULL,
  semgrep_findings INT NOT NULL DEFAULT 0,
  cargo_vulnerabilities INT NOT NULL DEFAULT 0,
  llm_findings INT NOT NULL DEFAULT 0,
  files_scanned INT NOT NULL DEFAULT 0,
  lines_scanned INT NOT NULL DEFAULT 0,
  duration_seconds INT NOT NULL DEFAULT 0,
  status VARCHAR(16) NOT NULL DEFAULT 'completed' CHECK(status IN ('running','completed','failed')),
  error_message TEXT,
  INDEX idx_scans_repo (repo_name)
)`,
}

// InitSchema creates the three tables and their indexes. Safe to run
// repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
