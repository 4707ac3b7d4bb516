package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureWebhook(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var messages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("webhook payload is not JSON: %v", err)
		}
		messages = append(messages, payload.Text)
		w.WriteHeader(http.StatusOK)
	}))
	return server, &messages
}

func TestReportLoadedMessage(t *testing.T) {
	server, messages := captureWebhook(t)
	defer server.Close()

	notifier := New(server.URL, "awin")
	if err := notifier.ReportLoaded(context.Background(), "US", "transactions", 42); err != nil {
		t.Fatalf("ReportLoaded failed: %v", err)
	}

	if len(*messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(*messages))
	}
	got := (*messages)[0]
	for _, want := range []string{":white_check_mark:", "awin", "US", "transactions", "Total: 42"} {
		if !strings.Contains(got, want) {
			t.Errorf("message %q missing %q", got, want)
		}
	}
}

func TestRunFailedMessage(t *testing.T) {
	server, messages := captureWebhook(t)
	defer server.Close()

	notifier := New(server.URL, "awin")
	if err := notifier.RunFailed(context.Background(), "UK", errors.New("feed timeout")); err != nil {
		t.Fatalf("RunFailed failed: %v", err)
	}

	got := (*messages)[0]
	if !strings.Contains(got, ":warning:") || !strings.Contains(got, "feed timeout") {
		t.Errorf("message %q missing warning icon or error text", got)
	}
}

func TestEmptyWebhookIsNoop(t *testing.T) {
	notifier := New("", "awin")
	if err := notifier.ReportLoaded(context.Background(), "US", "products", 1); err != nil {
		t.Errorf("expected no-op without a webhook, got %v", err)
	}
}
