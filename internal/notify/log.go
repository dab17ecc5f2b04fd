package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher writes notifications to the structured log. It is the
// default channel when no webhooks are configured, and a useful tee in
// front of them otherwise.
type LogDispatcher struct{}

// Dispatch logs the notification at a level matching its severity.
func (LogDispatcher) Dispatch(ctx context.Context, n Notification) []Delivery {
	attrs := []any{
		"title", n.Title,
		"severity", n.Severity,
		"recipients", n.Recipients,
	}
	switch n.Severity.Rank() {
	case 3:
		slog.ErrorContext(ctx, "notify: "+n.Message, attrs...)
	case 2:
		slog.WarnContext(ctx, "notify: "+n.Message, attrs...)
	default:
		slog.InfoContext(ctx, "notify: "+n.Message, attrs...)
	}
	return []Delivery{{Channel: "log", OK: true}}
}

// Multi fans a notification out to several dispatchers and concatenates
// their delivery statuses.
type Multi []Dispatcher

// Dispatch sends n through every wrapped dispatcher.
func (m Multi) Dispatch(ctx context.Context, n Notification) []Delivery {
	var out []Delivery
	for _, d := range m {
		out = append(out, d.Dispatch(ctx, n)...)
	}
	return out
}
