package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"
)

// =============================================================================
// SlackNotifier
// =============================================================================

// SlackNotifier posts events to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
	Username   string
	Client     *http.Client
}

// SlackOption configures a SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackChannel overrides the webhook's default channel.
func WithSlackChannel(channel string) SlackOption {
	return func(n *SlackNotifier) { n.Channel = channel }
}

// WithSlackUsername sets the display name of the poster.
func WithSlackUsername(username string) SlackOption {
	return func(n *SlackNotifier) { n.Username = username }
}

// WithSlackHTTPClient replaces the default client.
func WithSlackHTTPClient(c *http.Client) SlackOption {
	return func(n *SlackNotifier) { n.Client = c }
}

// NewSlackNotifier creates a webhook notifier.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		WebhookURL: webhookURL,
		Username:   "reviewflow",
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	title := fmt.Sprintf("%s %s", iconFor(event.Type), event.Type)
	if event.Step != "" {
		title += " (" + event.Step + ")"
	}
	payload := webhookPayload{
		Username: n.Username,
		Channel:  n.Channel,
		Attachments: []webhookAttachment{{
			Color:  colorFor(event.Severity),
			Title:  title,
			Text:   event.Message,
			Footer: "run " + event.RunID,
			TS:     event.Timestamp.Unix(),
			Fields: metadataFields(event.Metadata),
		}},
	}
	return postJSON(ctx, n.Client, n.WebhookURL, payload, nil)
}

func iconFor(t EventType) string {
	switch t {
	case EventRunStarted:
		return ":mag:"
	case EventRunCompleted:
		return ":white_check_mark:"
	case EventRunFailed, EventStepFailed:
		return ":x:"
	case EventRunSuspended:
		return ":hourglass:"
	case EventStepDegraded:
		return ":warning:"
	default:
		return ":information_source:"
	}
}

func colorFor(severity string) string {
	switch severity {
	case SeverityError:
		return "danger"
	case SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

// metadataFields renders metadata sorted by key so messages are stable.
func metadataFields(metadata map[string]any) []webhookField {
	if len(metadata) == 0 {
		return nil
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]webhookField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, webhookField{Title: k, Value: fmt.Sprint(metadata[k]), Short: true})
	}
	return fields
}

type webhookPayload struct {
	Username    string              `json:"username,omitempty"`
	Channel     string              `json:"channel,omitempty"`
	Attachments []webhookAttachment `json:"attachments"`
}

type webhookAttachment struct {
	Color  string         `json:"color,omitempty"`
	Title  string         `json:"title"`
	Text   string         `json:"text"`
	Footer string         `json:"footer,omitempty"`
	TS     int64          `json:"ts,omitempty"`
	Fields []webhookField `json:"fields,omitempty"`
}

type webhookField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// postJSON sends body as JSON and treats any 4xx/5xx as failure.
func postJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("post %s: status %d", url, resp.StatusCode)
	}
	return nil
}
