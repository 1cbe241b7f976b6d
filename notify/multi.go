package notify

import (
	"context"
	"errors"
	"log/slog"
)

// =============================================================================
// MultiNotifier
// =============================================================================

// MultiNotifier fans an event out to several notifiers. Every notifier is
// tried; their errors are joined.
type MultiNotifier struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

// NewMultiNotifier skips nil entries.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{Logger: slog.Default()}
	for _, n := range notifiers {
		if n != nil {
			m.Notifiers = append(m.Notifiers, n)
		}
	}
	return m
}

// Notify implements Notifier.
func (m *MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m.Notifiers {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
			if m.Logger != nil {
				m.Logger.Warn("notifier failed", "error", err, "event", event.Type)
			}
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// NopNotifier
// =============================================================================

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error { return nil }

// =============================================================================
// Filter
// =============================================================================

// OnlyRunEvents wraps n so that per-step events are dropped. Chat-facing
// sinks use it to avoid one message per step.
func OnlyRunEvents(n Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, event Event) error {
		if !event.Type.IsRunEvent() {
			return nil
		}
		return n.Notify(ctx, event)
	})
}
