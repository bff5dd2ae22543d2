package postgres

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS findings (
  id BIGSERIAL PRIMARY KEY,
  finding_id TEXT NOT NULL UNIQUE,
  repo_name TEXT NOT NULL,
  repo_url TEXT,
  repo_owner TEXT,
  file_path TEXT,
  line_number INT NOT NULL DEFAULT 0,
  vulnerability_type TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  severity TEXT NOT NULL CHECK(severity IN ('Critical','High','Medium','Low','Informational')),
  impact TEXT,
  recommendation TEXT,
  code_snippet TEXT,
  status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','approved','rejected','submitted','confirmed','paid')),
  confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
  analyzer TEXT,
  scan_id TEXT,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  submitted_at TIMESTAMPTZ,
  bounty_platform TEXT,
  bounty_url TEXT,
  bounty_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
  notes TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity)`,
	`CREATE INDEX IF NOT EXISTS idx_findings_status ON findings(status)`,
	`CREATE INDEX IF NOT EXISTS idx_findings_repo ON findings(repo_name)`,
	`CREATE INDEX IF NOT EXISTS idx_findings_type ON findings(vulnerability_type)`,
	`CREATE TABLE IF NOT EXISTS repositories (
  id BIGSERIAL PRIMARY KEY,
  repo_name TEXT NOT NULL UNIQUE,
  repo_url TEXT,
  owner TEXT,
  stars INT NOT NULL DEFAULT 0,
  forks INT NOT NULL DEFAULT 0,
  audit_priority INT NOT NULL DEFAULT 0,
  last_scan_id TEXT,
  last_scan_date TIMESTAMPTZ,
  total_findings INT NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active','archived','excluded')),
  created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS scan_history (
  id BIGSERIAL PRIMARY KEY,
  scan_id TEXT NOT NULL UNIQUE,
  repo_name TEXT NOT NULL,
  scan_date TIMESTAMPTZ NOT NULL,
  semgrep_findings INT NOT NULL DEFAULT 0,
  cargo_vulnerabilities INT NOT NULL DEFAULT 0,
  llm_findings INT NOT NULL DEFAULT 0,
  files_scanned INT NOT NULL DEFAULT 0,
  lines_scanned INT NOT NULL DEFAULT 0,
  duration_seconds INT NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed' CHECK(status IN ('running','completed','failed')),
  error_message TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_repo ON scan_history(repo_name)`,
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
