package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/frahmantamala/access-control/internal/metrics"
	"github.com/frahmantamala/access-control/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the authentication event bus: publish sample events through the log and metrics subscribers.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample authentication event",
	Long:      `Publish a sample event to an in-process bus wired like the server's, for checking log output and metric names.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeLoginSucceeded, events.EventTypeLoginFailed, events.EventTypeLoginBlocked, events.EventTypeLogout},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(args[0])
	},
}

var (
	eventClientIP string
	eventUserID   int64
)

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeLoginSucceeded:
		return events.NewLoginSucceededEvent(eventUserID, "administrador", eventClientIP), nil
	case events.EventTypeLoginFailed:
		return events.NewLoginFailedEvent(eventClientIP, events.ReasonInvalidCredentials, false), nil
	case events.EventTypeLoginBlocked:
		return events.NewLoginBlockedEvent(eventClientIP), nil
	case events.EventTypeLogout:
		return events.NewLogoutEvent(eventUserID), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishSampleEvent(eventType string) error {
	lg := logger.LoggerWrapper()

	event, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.Wildcard, events.LogHandler(lg))
	metrics.New().Subscribe(bus)

	if err := bus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	lg.Info("sample event published", "event_type", eventType, "event_id", event.EventID())
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventClientIP, "ip", "127.0.0.1", "client address carried by the event")
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "user id carried by the event")

	eventCmd.AddCommand(publishEventCmd)
}
