package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/bounty-hunter/internal/application"
	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

// Drafter port (interface for the AI submission drafter)
type Drafter interface {
	Draft(ctx context.Context, findingJSON string) (string, error)
}

// Archive port (interface for report storage)
type Archive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Service turns a reviewed finding into a bounty-platform submission
// draft and optionally archives it.
type Service struct {
	Findings domain.Repository
	AI       Drafter
	Archive  Archive
	Clock    application.Clock
}

// DraftSubmission renders the finding as JSON and asks the drafter for
// submission text.
func (s *Service) DraftSubmission(ctx context.Context, findingID string) (string, error) {
	f, err := s.Findings.GetByID(ctx, findingID)
	if err != nil {
		return "", fmt.Errorf("draft %s: %w", findingID, err)
	}

	payload, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("draft %s: %w", findingID, err)
	}
	draft, err := s.AI.Draft(ctx, string(payload))
	if err != nil {
		return "", fmt.Errorf("draft %s: %w", findingID, err)
	}
	return draft, nil
}

// ArchiveDraft stores the draft under reports/<repo>/<finding-id>.json
// and returns the object URL.
func (s *Service) ArchiveDraft(ctx context.Context, findingID, draft string) (string, error) {
	f, err := s.Findings.GetByID(ctx, findingID)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", findingID, err)
	}
	key := fmt.Sprintf("reports/%s/%s-%s.json",
		f.RepoName, f.FindingID, s.Clock.Now().Format("20060102150405"))
	url, err := s.Archive.Put(ctx, key, []byte(draft), "application/json")
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", findingID, err)
	}
	return url, nil
}
