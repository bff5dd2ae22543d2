package findings

// RepoCount is one row of the top-repositories grouping.
type RepoCount struct {
	RepoName string `json:"repo_name"`
	Count    int    `json:"count"`
}

// Statistics is the aggregate over the findings table.
type Statistics struct {
	TotalFindings  int            `json:"total_findings"`
	BySeverity     map[string]int `json:"by_severity"`
	ByStatus       map[string]int `json:"by_status"`
	TopRepos       []RepoCount    `json:"by_repo"`
	RecentFindings int            `json:"recent_findings"`
	Submissions    int            `json:"submissions"`
	TotalEarnings  float64        `json:"total_earnings"`
}
