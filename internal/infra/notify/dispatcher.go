package notify

import (
	"context"
	"log/slog"
	"time"

	"tutorlink/internal/usecase/commands"
)

const routingKeyBookingCreated = "booking.created"

const publishTimeout = 5 * time.Second

// AMQPDispatcher hands booking events to the message broker. The publish
// runs detached from the request: the booking is already durable when this
// is called, so a delivery failure is logged and dropped.
type AMQPDispatcher struct {
	publisher *Publisher
}

func NewAMQPDispatcher(publisher *Publisher) *AMQPDispatcher {
	return &AMQPDispatcher{publisher: publisher}
}

func (d *AMQPDispatcher) BookingCreated(_ context.Context, n commands.BookingCreatedNotification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := d.publisher.PublishJSON(ctx, routingKeyBookingCreated, n); err != nil {
			slog.Error("booking notification not delivered",
				"booking_id", n.BookingID,
				"teacher_id", n.TeacherID,
				"error", err)
		}
	}()
}

// LogDispatcher is the sink used when no broker is configured: the event is
// only logged, which keeps local setups runnable without RabbitMQ.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) BookingCreated(_ context.Context, n commands.BookingCreatedNotification) {
	slog.Info("booking notification (no broker configured)",
		"booking_id", n.BookingID,
		"teacher_id", n.TeacherID,
		"channel", n.Channel,
		"body", n.Body)
}
