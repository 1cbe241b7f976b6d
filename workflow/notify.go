package workflow

import (
	"context"
	"fmt"

	"github.com/randalmurphal/reviewflow/notify"
)

// emit sends an event to the configured notifier. Delivery failures are
// logged and never affect the run.
func (e *Engine) emit(ctx context.Context, typ notify.EventType, state State, step Step, msg, severity string) {
	event := notify.Event{
		Type:      typ,
		RunID:     state.RunID,
		Step:      string(step),
		Message:   msg,
		Severity:  severity,
		Timestamp: e.now(),
		Metadata:  eventMetadata(state),
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.logger.Debug("notification failed", "event", typ, "error", err)
	}
}

func eventMetadata(state State) map[string]any {
	meta := make(map[string]any)
	if state.RepositoryRef != "" {
		meta["repository"] = state.RepositoryRef
	}
	if state.TicketID != "" {
		meta["ticket"] = state.TicketID
	}
	if state.RequesterID != "" {
		meta["requester"] = state.RequesterID
	}
	if state.ReportGenerated {
		meta["score"] = state.Score
	}
	return meta
}

func completionMessage(state State) string {
	if !state.ReportGenerated {
		return "review run completed"
	}
	msg := fmt.Sprintf("review of %s completed: score %d/100, %d critical, %d high",
		state.RepositoryRef, state.Score, len(state.CriticalIssues), len(state.HighPriorityIssues))
	if state.LastError != "" {
		msg += " (with degraded steps)"
	}
	return msg
}
