package main

import (
	"fmt"

	domfindings "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
	domrepos "github.com/bryanwahyu/bounty-hunter/internal/domain/repos"
	domscans "github.com/bryanwahyu/bounty-hunter/internal/domain/scans"
)

var severityIcon = map[domfindings.Severity]string{
	domfindings.SeverityCritical: "🔴",
	domfindings.SeverityHigh:     "🟠",
	domfindings.SeverityMedium:   "🟡",
	domfindings.SeverityLow:      "🟢",
	domfindings.SeverityInfo:     "⚪",
}

func printFindings(list []*domfindings.Finding) {
	if len(list) == 0 {
		fmt.Println("No findings.")
		return
	}
	for _, f := range list {
		icon := severityIcon[f.Severity]
		if icon == "" {
			icon = "⚪"
		}
		fmt.Printf("%s [%s] %s\n", icon, f.FindingID, f.Title)
		fmt.Printf("   Repo: %s | Severity: %s | Status: %s | Confidence: %.0f%%\n",
			f.RepoName, f.Severity, f.Status, f.Confidence)
		if f.FilePath != "" {
			fmt.Printf("   Location: %s:%d\n", f.FilePath, f.LineNumber)
		}
		if f.VulnerabilityType != "" {
			fmt.Printf("   Type: %s\n", f.VulnerabilityType)
		}
		if f.Notes != "" {
			fmt.Printf("   Notes: %s\n", f.Notes)
		}
		fmt.Println()
	}
	fmt.Printf("%d finding(s)\n", len(list))
}

func printRepository(r *domrepos.Repository) {
	fmt.Printf("📦 %s (%s)\n", r.RepoName, r.Status)
	fmt.Printf("   URL: %s\n", r.RepoURL)
	fmt.Printf("   ⭐ %d | Forks: %d | Priority: %d\n", r.Stars, r.Forks, r.AuditPriority)
	if r.LastScanDate != nil {
		fmt.Printf("   Last scan: %s (%s)\n", r.LastScanDate.Format("2006-01-02 15:04"), r.LastScanID)
	}
	fmt.Printf("   Total findings: %d\n\n", r.TotalFindings)
}

func printScanRuns(runs []*domscans.Run) {
	if len(runs) == 0 {
		fmt.Println("No scans recorded.")
		return
	}
	fmt.Println("Scan history:")
	for _, run := range runs {
		fmt.Printf("  %s  %s  %s  findings=%d  files=%d  %ds\n",
			run.ScanDate.Format("2006-01-02 15:04"), run.ScanID, run.Status,
			run.TotalFindings(), run.FilesScanned, run.DurationSeconds)
		if run.ErrorMessage != "" {
			fmt.Printf("     error: %s\n", run.ErrorMessage)
		}
	}
}

func printStats(stats *domfindings.Statistics) {
	fmt.Println("📊 Bounty Hunting Statistics")
	fmt.Println("============================")
	fmt.Printf("Total findings:   %d\n", stats.TotalFindings)
	fmt.Printf("Last 7 days:      %d\n", stats.RecentFindings)
	fmt.Printf("Submissions:      %d\n", stats.Submissions)
	fmt.Printf("Total earnings:   $%.2f\n", stats.TotalEarnings)

	fmt.Println("\nBy severity:")
	for _, sev := range domfindings.SeverityOrder {
		if count, ok := stats.BySeverity[string(sev)]; ok {
			fmt.Printf("  %s %-13s %d\n", severityIcon[sev], sev, count)
		}
	}

	fmt.Println("\nBy status:")
	for status, count := range stats.ByStatus {
		fmt.Printf("  %-13s %d\n", status, count)
	}

	if len(stats.TopRepos) > 0 {
		fmt.Println("\nTop repositories:")
		for _, r := range stats.TopRepos {
			fmt.Printf("  %-40s %d\n", r.RepoName, r.Count)
		}
	}
}
