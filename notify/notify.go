package notify

import (
	"context"
	"time"
)

// =============================================================================
// Event Types
// =============================================================================

// EventType names a lifecycle transition of a review run.
type EventType string

// Run and step lifecycle events.
const (
	EventRunStarted    EventType = "run_started"
	EventRunSuspended  EventType = "run_suspended"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
	EventStepStarted   EventType = "step_started"
	EventStepCompleted EventType = "step_completed"
	EventStepDegraded  EventType = "step_degraded"
	EventStepFailed    EventType = "step_failed"
)

// IsRunEvent reports whether t describes the run as a whole.
func (t EventType) IsRunEvent() bool {
	switch t {
	case EventRunStarted, EventRunSuspended, EventRunCompleted, EventRunFailed:
		return true
	}
	return false
}

// Event severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Event is one observable moment of a review run.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Step      string         `json:"step,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// =============================================================================
// Notifier Interface
// =============================================================================

// Notifier delivers events to an operator-facing sink.
//
// Callers treat delivery as best-effort: an error is logged and never fails
// the run that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// =============================================================================
// Context Injection
// =============================================================================

type contextKey struct{}

// WithNotifier adds a Notifier to the context.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, contextKey{}, n)
}

// NotifierFromContext extracts the Notifier from context, or nil.
func NotifierFromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(contextKey{}).(Notifier); ok {
		return n
	}
	return nil
}
