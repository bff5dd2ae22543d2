package repos

import "time"

// Status enum
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusExcluded Status = "excluded"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusArchived || s == StatusExcluded
}

// Repository is a scan candidate/target, upserted by repo_name.
// Records are never deleted, only moved to archived/excluded.
type Repository struct {
	Seq           int64      `json:"-"`
	RepoName      string     `json:"repo_name"`
	RepoURL       string     `json:"repo_url"`
	Owner         string     `json:"owner,omitempty"`
	Stars         int        `json:"stars"`
	Forks         int        `json:"forks"`
	AuditPriority int        `json:"audit_priority"`
	LastScanID    string     `json:"last_scan_id,omitempty"`
	LastScanDate  *time.Time `json:"last_scan_date,omitempty"`
	TotalFindings int        `json:"total_findings"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}
