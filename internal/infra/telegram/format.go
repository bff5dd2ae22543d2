package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

// truncate cuts s to at most n bytes, stepping back to the nearest
// rune boundary so the result stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func emoji(sev findings.Severity) string {
	if e, ok := severityEmoji[sev]; ok {
		return e
	}
	return severityEmoji[findings.SeverityInfo]
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatFinding(f *findings.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>New %s Severity Finding</b>\n\n", emoji(f.Severity), f.Severity)
	fmt.Fprintf(&b, "<b>Repository:</b> <code>%s</code>\n", html.EscapeString(f.RepoName))
	fmt.Fprintf(&b, "<b>Finding ID:</b> <code>%s</code>\n\n", html.EscapeString(f.FindingID))
	fmt.Fprintf(&b, "<b>Vulnerability:</b> %s\n", html.EscapeString(orNA(f.VulnerabilityType)))
	fmt.Fprintf(&b, "<b>Title:</b> %s\n\n", html.EscapeString(orNA(f.Title)))
	fmt.Fprintf(&b, "<b>Location:</b>\n")
	fmt.Fprintf(&b, "File: <code>%s</code>\n", html.EscapeString(orNA(f.FilePath)))
	fmt.Fprintf(&b, "Line: %d\n\n", f.LineNumber)
	fmt.Fprintf(&b, "<b>Description:</b>\n%s\n\n", html.EscapeString(truncate(orNA(f.Description), descriptionBudget)))
	fmt.Fprintf(&b, "<b>Impact:</b>\n%s\n\n", html.EscapeString(truncate(orNA(f.Impact), impactBudget)))
	fmt.Fprintf(&b, "<b>Confidence:</b> %.0f%%\n", f.Confidence)
	fmt.Fprintf(&b, "<b>Analyzer:</b> %s\n\n", html.EscapeString(orNA(f.Analyzer)))
	fmt.Fprintf(&b, "<b>Actions:</b>\n")
	fmt.Fprintf(&b, "Review: <code>/bounty_review %s</code>\n", f.FindingID)
	fmt.Fprintf(&b, "Approve: <code>/bounty_approve %s</code>\n", f.FindingID)
	fmt.Fprintf(&b, "Reject: <code>/bounty_reject %s</code>\n\n", f.FindingID)
	fmt.Fprintf(&b, "<b>Full Details:</b>\n<code>%s</code>\n", html.EscapeString(f.RepoURL))

	return capMessage(b.String())
}

func formatSummary(stats *findings.Statistics) string {
	var b strings.Builder
	b.WriteString("\U0001F4CA <b>Solana Bug Bounty Hunter - Summary</b>\n\n")
	fmt.Fprintf(&b, "<b>Scan Statistics:</b>\n")
	fmt.Fprintf(&b, "- Total Findings: %d\n", stats.TotalFindings)
	fmt.Fprintf(&b, "- Recent (7 days): %d\n\n", stats.RecentFindings)
	fmt.Fprintf(&b, "<b>By Severity:</b>\n")
	for _, sev := range findings.SeverityOrder {
		fmt.Fprintf(&b, "%s %s: %d\n", emoji(sev), sev, stats.BySeverity[string(sev)])
	}
	fmt.Fprintf(&b, "\n<b>By Status:</b>\n")
	fmt.Fprintf(&b, "Pending Review: %d\n", stats.ByStatus[string(findings.StatusPending)])
	fmt.Fprintf(&b, "Approved: %d\n", stats.ByStatus[string(findings.StatusApproved)])
	fmt.Fprintf(&b, "Submitted: %d\n", stats.ByStatus[string(findings.StatusSubmitted)])
	fmt.Fprintf(&b, "Paid: %d\n\n", stats.ByStatus[string(findings.StatusPaid)])
	fmt.Fprintf(&b, "<b>Submissions:</b> %d\n", stats.Submissions)
	fmt.Fprintf(&b, "<b>Earnings:</b> $%.2f\n", stats.TotalEarnings)
	return capMessage(b.String())
}

func formatScanComplete(repoName string, findingsCount int, scanDir string) string {
	var b strings.Builder
	b.WriteString("✅ <b>Scan Complete</b>\n\n")
	fmt.Fprintf(&b, "Repository: <code>%s</code>\n", html.EscapeString(repoName))
	fmt.Fprintf(&b, "Findings: %d\n\n", findingsCount)
	fmt.Fprintf(&b, "Scan directory: <code>%s</code>\n\n", html.EscapeString(scanDir))
	b.WriteString("<b>Next Steps:</b>\n")
	b.WriteString("1. Review findings in database\n")
	b.WriteString("2. Use /bounty_review to see pending items\n")
	b.WriteString("3. Approve/reject each finding\n")
	return capMessage(b.String())
}

func formatApprovalRequest(f *findings.Finding) string {
	var b strings.Builder
	b.WriteString("\U0001F6A8 <b>APPROVAL REQUIRED</b>\n\n")
	fmt.Fprintf(&b, "<b>Finding ID:</b> <code>%s</code>\n", html.EscapeString(f.FindingID))
	fmt.Fprintf(&b, "<b>Severity:</b> %s\n", f.Severity)
	fmt.Fprintf(&b, "<b>Repository:</b> %s\n\n", html.EscapeString(f.RepoName))
	fmt.Fprintf(&b, "<b>Code Snippet:</b>\n<pre><code class=\"rust\">%s</code></pre>\n\n",
		html.EscapeString(truncate(orNA(f.CodeSnippet), snippetBudget)))
	fmt.Fprintf(&b, "<b>Recommendation:</b>\n%s\n\n",
		html.EscapeString(truncate(orNA(f.Recommendation), recommendationBudget)))
	b.WriteString("<b>Reply with:</b>\n")
	b.WriteString("- \"approve\" - Submit this finding to bounty platforms\n")
	b.WriteString("- \"reject\" - Mark as false positive\n")
	b.WriteString("- \"more info\" - Request additional details\n")
	return capMessage(b.String())
}

// capMessage keeps the rendered message under the Telegram limit,
// appending a marker when content was dropped.
func capMessage(msg string) string {
	if len(msg) <= maxMessageLen {
		return msg
	}
	return truncate(msg, maxMessageLen-100) + "\n\n<i>(Message truncated - see full report in database)</i>"
}
