package scans

import "time"

// ScanID identifier type
type ScanID string

// Status enum
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	return s == StatusRunning || s == StatusCompleted || s == StatusFailed
}

// Run is one execution of the analysis pipeline against a repository.
// Append-only; the pipeline itself runs outside this system.
type Run struct {
	Seq                  int64     `json:"-"`
	ScanID               ScanID    `json:"scan_id"`
	RepoName             string    `json:"repo_name"`
	ScanDate             time.Time `json:"scan_date"`
	SemgrepFindings      int       `json:"semgrep_findings"`
	CargoVulnerabilities int       `json:"cargo_vulnerabilities"`
	LLMFindings          int       `json:"llm_findings"`
	FilesScanned         int       `json:"files_scanned"`
	LinesScanned         int       `json:"lines_scanned"`
	DurationSeconds      int       `json:"duration_seconds"`
	Status               Status    `json:"status"`
	ErrorMessage         string    `json:"error_message,omitempty"`
}

// TotalFindings sums the per-analyzer counts.
func (r *Run) TotalFindings() int {
	return r.SemgrepFindings + r.CargoVulnerabilities + r.LLMFindings
}
