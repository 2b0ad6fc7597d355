package components

import (
	"tutorlink/internal/infra/readstore"
	repo_impl "tutorlink/internal/infra/repository"
	"tutorlink/internal/pkg/config"
	"tutorlink/internal/usecase/commands"
	"tutorlink/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		// Concrete booking repository stays visible for the expiry job.
		repo_impl.NewBookingRepository,
		fx.Annotate(
			func(r *repo_impl.BookingRepository) *repo_impl.BookingRepository { return r },
			fx.As(new(commands.BookingRepository)),
		),
		fx.Annotate(
			repo_impl.NewProxySessionRepository,
			fx.As(new(commands.ProxySessionRepository)),
		),
		NewTeacherDirectory,
		// Read-side store for queries
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) repo_impl.DBTX {
	return pool
}

// NewTeacherDirectory layers the Redis cache over the database lookup. A nil
// Redis client degrades to direct reads.
func NewTeacherDirectory(db repo_impl.DBTX, rdb *redis.Client, cfg config.Config) commands.TeacherDirectory {
	inner := repo_impl.NewTeacherReadStore(db)
	return readstore.NewCachedTeacherDirectory(inner, rdb, cfg.Redis.TeacherTTL)
}
