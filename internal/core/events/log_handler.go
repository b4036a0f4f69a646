package events

import (
	"context"
	"log/slog"
)

// LogHandler writes every event it receives to logger. Subscribed under
// Wildcard it acts as the authentication audit trail.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}
}
