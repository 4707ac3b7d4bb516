// Package notify posts run outcomes to a Slack webhook.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

const (
	successIcon = ":white_check_mark:"
	warningIcon = ":warning:"
)

// Notifier sends human-readable run messages. An empty webhook URL
// disables delivery, so local runs stay quiet.
type Notifier struct {
	webhookURL string
	network    string
}

// New creates a notifier for the given webhook and network tag.
func New(webhookURL, network string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		network:    network,
	}
}

// ReportLoaded announces one loaded report collection with its row count.
func (n *Notifier) ReportLoaded(ctx context.Context, country, reportType string, count int) error {
	return n.post(ctx, fmt.Sprintf("%s Pulled data from %s %s %s! Total: %d",
		successIcon, n.network, country, reportType, count))
}

// RunFailed announces an aborted run together with the failure.
func (n *Notifier) RunFailed(ctx context.Context, country string, runErr error) error {
	return n.post(ctx, fmt.Sprintf("%s %s %s extraction failed: %v",
		warningIcon, n.network, country, runErr))
}

// Warning posts a free-form warning message.
func (n *Notifier) Warning(ctx context.Context, message string) error {
	return n.post(ctx, fmt.Sprintf("%s %s", warningIcon, message))
}

// Tagged announces a completed classification run.
func (n *Notifier) Tagged(ctx context.Context, count int) error {
	return n.post(ctx, fmt.Sprintf("%s Tagged %d new %s products!", successIcon, count, n.network))
}

func (n *Notifier) post(ctx context.Context, text string) error {
	if n.webhookURL == "" {
		return nil
	}
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("notify: posting webhook: %w", err)
	}
	return nil
}
