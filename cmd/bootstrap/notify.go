package bootstrap

import (
	"context"
	"log/slog"

	"tutorlink/internal/infra/notify"
	"tutorlink/internal/pkg/config"
	"tutorlink/internal/usecase/commands"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewNotificationDispatcher,
	),
)

// NewNotificationDispatcher wires the broker when AMQP_URL is set and falls
// back to a log-only sink otherwise. Notification delivery is best effort
// either way.
func NewNotificationDispatcher(lc fx.Lifecycle, cfg config.Config) (commands.NotificationDispatcher, error) {
	if cfg.AMQP.URL == "" {
		slog.Info("amqp not configured, booking notifications will only be logged")
		return notify.NewLogDispatcher(), nil
	}

	publisher, err := notify.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	return notify.NewAMQPDispatcher(publisher), nil
}
