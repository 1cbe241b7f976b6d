package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Event Type Tests
// =============================================================================

func TestEventType_IsRunEvent(t *testing.T) {
	tests := []struct {
		typ  EventType
		want bool
	}{
		{EventRunStarted, true},
		{EventRunSuspended, true},
		{EventRunCompleted, true},
		{EventRunFailed, true},
		{EventStepStarted, false},
		{EventStepCompleted, false},
		{EventStepDegraded, false},
		{EventStepFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.IsRunEvent(); got != tt.want {
				t.Errorf("IsRunEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// LogNotifier Tests
// =============================================================================

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	err := n.Notify(context.Background(), Event{
		Type:     EventStepCompleted,
		RunID:    "run-123",
		Step:     "analyze",
		Message:  "analysis done",
		Severity: SeverityInfo,
		Metadata: map[string]any{"files": 3},
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"analysis done", "run-123", "step=analyze", "files=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLogNotifier_Severity(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{SeverityInfo, "level=INFO"},
		{SeverityWarning, "level=WARN"},
		{SeverityError, "level=ERROR"},
		{"", "level=INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
			_ = n.Notify(context.Background(), Event{Type: EventRunStarted, Message: "x", Severity: tt.severity})
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLogNotifier_NilLogger(t *testing.T) {
	n := NewLogNotifier(nil)
	if n.Logger == nil {
		t.Fatal("expected default logger")
	}
}

// =============================================================================
// MultiNotifier Tests
// =============================================================================

func TestMultiNotifier_JoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var calls int
	count := NotifierFunc(func(context.Context, Event) error { calls++; return nil })

	m := NewMultiNotifier(
		NotifierFunc(func(context.Context, Event) error { return errA }),
		nil,
		count,
		NotifierFunc(func(context.Context, Event) error { return errB }),
	)
	m.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	err := m.Notify(context.Background(), Event{Type: EventRunFailed})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Notify() error = %v, want both errors", err)
	}
	if calls != 1 {
		t.Errorf("middle notifier called %d times, want 1", calls)
	}
	if len(m.Notifiers) != 3 {
		t.Errorf("len(Notifiers) = %d, want 3 (nil skipped)", len(m.Notifiers))
	}
}

func TestOnlyRunEvents(t *testing.T) {
	var got []EventType
	n := OnlyRunEvents(NotifierFunc(func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	}))

	for _, typ := range []EventType{EventRunStarted, EventStepStarted, EventStepCompleted, EventRunCompleted} {
		_ = n.Notify(context.Background(), Event{Type: typ})
	}
	if len(got) != 2 || got[0] != EventRunStarted || got[1] != EventRunCompleted {
		t.Errorf("forwarded = %v, want [run_started run_completed]", got)
	}
}

func TestNopNotifier(t *testing.T) {
	if err := (NopNotifier{}).Notify(context.Background(), Event{}); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
}

// =============================================================================
// Context Tests
// =============================================================================

func TestNotifierContext(t *testing.T) {
	ctx := context.Background()
	if NotifierFromContext(ctx) != nil {
		t.Fatal("expected nil notifier in empty context")
	}
	ctx = WithNotifier(ctx, NopNotifier{})
	if NotifierFromContext(ctx) == nil {
		t.Fatal("expected notifier from context")
	}
}

// =============================================================================
// HTTP Notifier Tests
// =============================================================================

func TestSlackNotifier(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, WithSlackChannel("#review-ops"), WithSlackUsername("bot"))
	err := n.Notify(context.Background(), Event{
		Type:      EventRunFailed,
		RunID:     "run-9",
		Step:      "clone_repository",
		Message:   "clone failed",
		Severity:  SeverityError,
		Timestamp: time.Unix(1700000000, 0),
		Metadata:  map[string]any{"z": 1, "a": "x"},
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if received.Channel != "#review-ops" || received.Username != "bot" {
		t.Errorf("channel/username = %q/%q", received.Channel, received.Username)
	}
	if len(received.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(received.Attachments))
	}
	att := received.Attachments[0]
	if att.Color != "danger" {
		t.Errorf("color = %q, want danger", att.Color)
	}
	if !strings.Contains(att.Title, "clone_repository") {
		t.Errorf("title = %q, want step name", att.Title)
	}
	if len(att.Fields) != 2 || att.Fields[0].Title != "a" {
		t.Errorf("fields = %+v, want sorted by key", att.Fields)
	}
}

func TestSlackNotifier_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := NewSlackNotifier(server.URL).Notify(context.Background(), Event{Type: EventRunStarted})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("Notify() error = %v, want status 403", err)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got Event
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, map[string]string{"Authorization": "Bearer t"})
	if err := n.Notify(context.Background(), Event{Type: EventRunCompleted, RunID: "r1", Message: "ok"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if auth != "Bearer t" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Type != EventRunCompleted || got.RunID != "r1" {
		t.Errorf("event = %+v", got)
	}
}
