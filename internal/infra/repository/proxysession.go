package repository

import (
	"context"

	"tutorlink/internal/domain/proxysession"
	"tutorlink/internal/infra"
)

type ProxySessionRepository struct {
	db DBTX
}

func NewProxySessionRepository(db DBTX) *ProxySessionRepository {
	return &ProxySessionRepository{db: db}
}

func (r *ProxySessionRepository) Create(ctx context.Context, s *proxysession.ProxySession) error {
	const query = `
		INSERT INTO proxy_sessions (id, booking_id, proxy_identifier, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		s.ID(),
		s.BookingID(),
		s.ProxyIdentifier(),
		s.ExpiresAt(),
		s.CreatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create proxy session", err)
	}
	return nil
}
