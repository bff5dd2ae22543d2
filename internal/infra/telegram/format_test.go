package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

func TestFormatFinding(t *testing.T) {
	f := &findings.Finding{
		FindingID:         "FND-20250315-solana-dex",
		RepoName:          "acme/solana-dex",
		RepoURL:           "https://github.com/acme/solana-dex",
		FilePath:          "programs/dex/src/lib.rs",
		LineNumber:        42,
		VulnerabilityType: "missing-signer-check",
		Title:             "Withdraw lacks <signer> validation",
		Description:       "The withdraw handler trusts the authority account.",
		Severity:          findings.SeverityCritical,
		Confidence:        90,
		Analyzer:          "semgrep",
	}
	msg := formatFinding(f)

	for _, want := range []string{
		"\U0001F534 <b>New Critical Severity Finding</b>",
		"<code>acme/solana-dex</code>",
		"<code>FND-20250315-solana-dex</code>",
		"Line: 42",
		"<b>Confidence:</b> 90%",
		"/bounty_approve FND-20250315-solana-dex",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("formatFinding() missing %q", want)
		}
	}

	// HTML in user content must be escaped
	if strings.Contains(msg, "<signer>") {
		t.Error("formatFinding() left raw HTML in the title")
	}
	if !strings.Contains(msg, "&lt;signer&gt;") {
		t.Error("formatFinding() did not escape the title")
	}

	// empty fields render as N/A
	msg = formatFinding(&findings.Finding{Severity: findings.SeverityLow})
	if !strings.Contains(msg, "<b>Vulnerability:</b> N/A") {
		t.Error("formatFinding() missing N/A placeholder for empty type")
	}
}

func TestFormatFindingTruncatesDescription(t *testing.T) {
	f := &findings.Finding{
		Severity:    findings.SeverityHigh,
		Description: strings.Repeat("a", descriptionBudget+200),
		Impact:      strings.Repeat("b", impactBudget+200),
	}
	msg := formatFinding(f)

	if strings.Contains(msg, strings.Repeat("a", descriptionBudget+1)) {
		t.Error("description not truncated to its budget")
	}
	if !strings.Contains(msg, strings.Repeat("a", descriptionBudget)) {
		t.Error("truncated description shorter than its budget")
	}
	if strings.Contains(msg, strings.Repeat("b", impactBudget+1)) {
		t.Error("impact not truncated to its budget")
	}
}

func TestFormatApprovalRequestEscapesSnippet(t *testing.T) {
	f := &findings.Finding{
		FindingID:   "FND-1",
		Severity:    findings.SeverityHigh,
		RepoName:    "acme/amm",
		CodeSnippet: "if authority != &ctx.accounts.admin.key() { return Err(...) }",
	}
	msg := formatApprovalRequest(f)

	if !strings.Contains(msg, "<pre><code class=\"rust\">") {
		t.Error("approval request missing code block")
	}
	if !strings.Contains(msg, "&amp;ctx.accounts.admin.key()") {
		t.Error("snippet not HTML-escaped")
	}
	if !strings.Contains(msg, "APPROVAL REQUIRED") {
		t.Error("approval request missing header")
	}
}

func TestFormatSummary(t *testing.T) {
	stats := &findings.Statistics{
		TotalFindings:  12,
		RecentFindings: 3,
		BySeverity:     map[string]int{"Critical": 2, "High": 4},
		ByStatus:       map[string]int{"pending": 5, "paid": 1},
		Submissions:    4,
		TotalEarnings:  1500.50,
	}
	msg := formatSummary(stats)

	for _, want := range []string{
		"Total Findings: 12",
		"Recent (7 days): 3",
		"\U0001F534 Critical: 2",
		"\U0001F7E0 High: 4",
		"Pending Review: 5",
		"Paid: 1",
		"<b>Submissions:</b> 4",
		"<b>Earnings:</b> $1500.50",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("formatSummary() missing %q", want)
		}
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
	}{
		{"ascii", strings.Repeat("a", 600), descriptionBudget},
		{"cut inside a 3-byte rune", "a" + strings.Repeat("⚠", 400), descriptionBudget},
		{"cut inside a 4-byte rune", strings.Repeat("🔴", 200), descriptionBudget},
		{"mixed", "предупреждение: " + strings.Repeat("überlauf ", 100), descriptionBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.s, tt.n)
			if len(got) > tt.n {
				t.Errorf("len = %d, want <= %d", len(got), tt.n)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: last bytes % x", got[max(0, len(got)-4):])
			}
			if !strings.HasPrefix(tt.s, got) {
				t.Error("result is not a prefix of the input")
			}
		})
	}

	// short input passes through whole
	if got := truncate("⚠⚠", 100); got != "⚠⚠" {
		t.Errorf("truncate(short) = %q, want unchanged", got)
	}
}

func TestCapMessageKeepsRuneBoundaries(t *testing.T) {
	// sized so the cut point lands mid-rune
	long := "a" + strings.Repeat("⚠", maxMessageLen)
	got := capMessage(long)
	if len(got) > maxMessageLen {
		t.Errorf("length = %d, want <= %d", len(got), maxMessageLen)
	}
	if !utf8.ValidString(got) {
		t.Error("capMessage produced invalid UTF-8 at the cut")
	}
	if !strings.HasSuffix(got, "<i>(Message truncated - see full report in database)</i>") {
		t.Error("capMessage missing truncation marker")
	}
}

func TestCapMessage(t *testing.T) {
	short := "hello"
	if got := capMessage(short); got != short {
		t.Errorf("capMessage(short) = %q, want unchanged", got)
	}

	long := strings.Repeat("x", maxMessageLen+500)
	got := capMessage(long)
	if len(got) > maxMessageLen {
		t.Errorf("capMessage(long) length = %d, want <= %d", len(got), maxMessageLen)
	}
	if !strings.HasSuffix(got, "<i>(Message truncated - see full report in database)</i>") {
		t.Error("capMessage(long) missing truncation marker")
	}
}
