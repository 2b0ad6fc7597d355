package components

import (
	"tutorlink/internal/domain/booking"
	"tutorlink/internal/pkg/clock"
	"tutorlink/internal/pkg/config"
	"tutorlink/internal/usecase/commands"
	"tutorlink/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewBookingFactory,
		NewBookingCommands,
		queries.NewBookingQueries,
	),
)

func NewBookingFactory(clk clock.Clock, cfg config.Config) *booking.Factory {
	return booking.NewFactory(clk, cfg.Booking.MinLeadTime, cfg.Booking.TTL)
}

func NewBookingCommands(
	bookings commands.BookingRepository,
	sessions commands.ProxySessionRepository,
	teachers commands.TeacherDirectory,
	notifier commands.NotificationDispatcher,
	factory *booking.Factory,
	clk clock.Clock,
	cfg config.Config,
) commands.BookingCommands {
	return commands.NewBookingCommands(bookings, sessions, teachers, notifier, factory, clk, cfg.Booking.NotifyChannel)
}
