package bootstrap

import (
	"context"

	"tutorlink/internal/infra/repository"
	"tutorlink/internal/jobs"
	"tutorlink/internal/pkg/clock"
	"tutorlink/internal/pkg/config"

	"go.uber.org/fx"
)

var JobsModule = fx.Module("jobs",
	fx.Invoke(RunExpirer),
)

func RunExpirer(lc fx.Lifecycle, cfg config.Config, repo *repository.BookingRepository, clk clock.Clock) {
	if !cfg.Booking.ExpirerEnabled {
		return
	}

	expirer := jobs.NewExpirer(repo, clk, cfg.Booking.ExpirerInterval)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			expirer.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			expirer.Stop()
			return nil
		},
	})
}
