package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// Telegram caps messages at 4096 chars; stay under with room for
	// the truncation marker.
	maxMessageLen = 4000

	descriptionBudget    = 500
	impactBudget         = 300
	snippetBudget        = 800
	recommendationBudget = 500
)

// ErrMissingCredentials means bot token or chat id were not configured.
var ErrMissingCredentials = errors.New("telegram bot token and chat id must be set")

var severityEmoji = map[findings.Severity]string{
	findings.SeverityCritical: "\U0001F534", // red circle
	findings.SeverityHigh:     "\U0001F7E0", // orange circle
	findings.SeverityMedium:   "\U0001F7E1", // yellow circle
	findings.SeverityLow:      "\U0001F7E2", // green circle
	findings.SeverityInfo:     "⚪", // white circle
}

// Notifier delivers HTML-formatted messages through the Telegram Bot
// API. Delivery is fire-and-forget: failures are reported, not retried.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	httpc    *http.Client
}

func New(botToken, chatID string) (*Notifier, error) {
	return NewWithBaseURL(botToken, chatID, defaultBaseURL)
}

func NewWithBaseURL(botToken, chatID, baseURL string) (*Notifier, error) {
	if botToken == "" || chatID == "" {
		return nil, ErrMissingCredentials
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  baseURL,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SendMessage posts one HTML message to the configured chat.
func (n *Notifier) SendMessage(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram api error: %s", result.Description)
	}
	return nil
}

// SendFinding renders a finding for human review.
func (n *Notifier) SendFinding(ctx context.Context, f *findings.Finding) error {
	return n.SendMessage(ctx, formatFinding(f))
}

// SendSummary renders the statistics digest.
func (n *Notifier) SendSummary(ctx context.Context, stats *findings.Statistics) error {
	return n.SendMessage(ctx, formatSummary(stats))
}

// SendScanComplete announces a finished scan.
func (n *Notifier) SendScanComplete(ctx context.Context, repoName string, findingsCount int, scanDir string) error {
	return n.SendMessage(ctx, formatScanComplete(repoName, findingsCount, scanDir))
}

// SendApprovalRequest renders the detailed approve/reject prompt.
func (n *Notifier) SendApprovalRequest(ctx context.Context, f *findings.Finding) error {
	return n.SendMessage(ctx, formatApprovalRequest(f))
}
