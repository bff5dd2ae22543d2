package discovery

import "context"

// Repo is a raw repository search result as returned by the provider.
type Repo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Owner       string   `json:"owner"`
	HTMLURL     string   `json:"html_url"`
	CloneURL    string   `json:"clone_url"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Archived    bool     `json:"archived"`
	UpdatedAt   string   `json:"updated_at"`
	CreatedAt   string   `json:"created_at"`
}

// Candidate is an admitted, scored repository in the audit queue.
type Candidate struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Owner         string   `json:"owner"`
	URL           string   `json:"url"`
	CloneURL      string   `json:"clone_url"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Language      string   `json:"language"`
	Description   string   `json:"description"`
	Topics        []string `json:"topics"`
	UpdatedAt     string   `json:"updated_at"`
	CreatedAt     string   `json:"created_at"`
	AuditPriority int      `json:"audit_priority"`
}

// Provider port (interface for the repository search backend)
type Provider interface {
	Search(ctx context.Context, query string, perPage int) ([]Repo, error)
}
