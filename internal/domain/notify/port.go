package notify

import (
	"context"

	"github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

// Notifier port. Delivery either succeeds or fails; there are no retries.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
	SendFinding(ctx context.Context, f *findings.Finding) error
	SendSummary(ctx context.Context, stats *findings.Statistics) error
	SendScanComplete(ctx context.Context, repoName string, findingsCount int, scanDir string) error
	SendApprovalRequest(ctx context.Context, f *findings.Finding) error
}
