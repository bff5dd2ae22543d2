package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "123"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("New with empty token: error = %v, want ErrMissingCredentials", err)
	}
	if _, err := New("token", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("New with empty chat id: error = %v, want ErrMissingCredentials", err)
	}
	if _, err := New("token", "123"); err != nil {
		t.Errorf("New with credentials: unexpected error %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	n, err := NewWithBaseURL("bot-token", "chat-42", srv.URL)
	if err != nil {
		t.Fatalf("NewWithBaseURL() error = %v", err)
	}
	if err := n.SendMessage(context.Background(), "hello <b>world</b>"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path = %q, want /botbot-token/sendMessage", gotPath)
	}
	if gotPayload["chat_id"] != "chat-42" {
		t.Errorf("chat_id = %v, want chat-42", gotPayload["chat_id"])
	}
	if gotPayload["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %v, want HTML", gotPayload["parse_mode"])
	}
	if gotPayload["text"] != "hello <b>world</b>" {
		t.Errorf("text = %v", gotPayload["text"])
	}
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	}))
	defer srv.Close()

	n, _ := NewWithBaseURL("t", "c", srv.URL)
	err := n.SendMessage(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("SendMessage() error = %v, want telegram api error", err)
	}
}

func TestSendFindingDeliversFormattedMessage(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotText = payload.Text
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	n, _ := NewWithBaseURL("t", "c", srv.URL)
	err := n.SendFinding(context.Background(), &findings.Finding{
		FindingID: "FND-20250315-amm",
		RepoName:  "acme/amm",
		Severity:  findings.SeverityHigh,
	})
	if err != nil {
		t.Fatalf("SendFinding() error = %v", err)
	}
	if !strings.Contains(gotText, "FND-20250315-amm") {
		t.Errorf("delivered text missing finding id: %q", gotText)
	}
	if !strings.Contains(gotText, "New High Severity Finding") {
		t.Errorf("delivered text missing header: %q", gotText)
	}
}
