package notify

import (
	"context"
	"net/http"
	"time"
)

// WebhookNotifier posts each Event as JSON to a URL.
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

// NewWebhookNotifier creates a webhook notifier. Headers are sent on every request.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	return postJSON(ctx, n.Client, n.URL, event, n.Headers)
}
