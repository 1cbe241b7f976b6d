package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier; a nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	attrs := []any{
		"event", event.Type,
		"run_id", event.RunID,
	}
	if event.Step != "" {
		attrs = append(attrs, "step", event.Step)
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, k, v)
	}
	n.Logger.Log(ctx, levelFor(event.Severity), event.Message, attrs...)
	return nil
}

func levelFor(severity string) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
