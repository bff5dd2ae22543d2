package findings

import (
	"fmt"
	"strings"
	"time"
)

// Severity enum, Critical highest
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Informational"
)

// SeverityOrder is the review ordering, highest risk first.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// Rank returns 1 for Critical down to 5 for Informational; 0 for unknown.
func (s Severity) Rank() int {
	for i, sev := range SeverityOrder {
		if s == sev {
			return i + 1
		}
	}
	return 0
}

func (s Severity) Valid() bool { return s.Rank() != 0 }

func (s Severity) String() string { return string(s) }

// ParseSeverity parses case-insensitively. "Info" is accepted for
// Informational.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	case "informational", "info":
		return SeverityInfo, nil
	default:
		return "", fmt.Errorf("invalid severity: %q", raw)
	}
}

// SeveritiesAtOrAbove returns the severities whose rank is at or above
// min (Critical first). An unknown min degrades to all severities; callers
// wanting stricter behavior must validate upstream.
func SeveritiesAtOrAbove(min Severity) []Severity {
	rank := min.Rank()
	if rank == 0 {
		rank = len(SeverityOrder)
	}
	out := make([]Severity, rank)
	copy(out, SeverityOrder[:rank])
	return out
}

// Status enum for the review/submission workflow
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
)

var allStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected,
	StatusSubmitted, StatusConfirmed, StatusPaid,
}

func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// CanTransition reports whether from -> to follows the recommended
// workflow: pending -> approved|rejected -> submitted -> confirmed -> paid.
// The store does not enforce this; human override is expected, so callers
// use it to warn rather than refuse.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusSubmitted
	case StatusSubmitted:
		return to == StatusConfirmed
	case StatusConfirmed:
		return to == StatusPaid
	default:
		// rejected and paid are terminal
		return false
	}
}

// Aggregate root: Finding
type Finding struct {
	Seq               int64      `json:"-"`
	FindingID         string     `json:"finding_id"`
	RepoName          string     `json:"repo_name"`
	RepoURL           string     `json:"repo_url"`
	RepoOwner         string     `json:"repo_owner,omitempty"`
	FilePath          string     `json:"file_path,omitempty"`
	LineNumber        int        `json:"line_number,omitempty"`
	VulnerabilityType string     `json:"vulnerability_type"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Severity          Severity   `json:"severity"`
	Impact            string     `json:"impact,omitempty"`
	Recommendation    string     `json:"recommendation,omitempty"`
	CodeSnippet       string     `json:"code_snippet,omitempty"`
	Status            Status     `json:"status"`
	Confidence        float64    `json:"confidence"`
	Analyzer          string     `json:"analyzer,omitempty"`
	ScanID            string     `json:"scan_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	BountyPlatform    string     `json:"bounty_platform,omitempty"`
	BountyURL         string     `json:"bounty_url,omitempty"`
	BountyAmount      float64    `json:"bounty_amount,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// Validate checks the ingestion payload invariants: required fields,
// enum membership, confidence range.
func (f *Finding) Validate() error {
	if strings.TrimSpace(f.RepoName) == "" {
		return fmt.Errorf("%w: repo_name is required", ErrInvalidFinding)
	}
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidFinding)
	}
	if strings.TrimSpace(f.VulnerabilityType) == "" {
		return fmt.Errorf("%w: vulnerability_type is required", ErrInvalidFinding)
	}
	if !f.Severity.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, f.Severity)
	}
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	if f.Confidence < 0 || f.Confidence > 100 {
		return fmt.Errorf("%w: confidence %.1f out of range [0,100]", ErrInvalidFinding, f.Confidence)
	}
	return nil
}
