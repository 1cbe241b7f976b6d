// Package notify delivers operator-facing events about review runs.
//
// These events are separate from the review conversation itself: the chat
// thread that a requester sees is driven by the workflow steps, while the
// notifiers here feed logs, alert channels and webhooks.
//
// Implementations:
//   - LogNotifier: writes events to slog
//   - SlackNotifier: posts run events to an incoming webhook
//   - WebhookNotifier: posts the JSON event to any URL
//   - MultiNotifier: fans out to several notifiers
//   - NopNotifier: discards events
//
// Example:
//
//	n := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.OnlyRunEvents(notify.NewSlackNotifier(hookURL, notify.WithSlackChannel("#review-ops"))),
//	)
//	engine, _ := workflow.NewEngine(steps, workflow.WithNotifier(n))
package notify
