package readstore

import (
	"context"
	"errors"

	"tutorlink/internal/infra"
	"tutorlink/internal/infra/repository"
	"tutorlink/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingViewColumns = `
	b.id, b.teacher_id, b.student_name, b.student_phone, b.student_email,
	b.requested_time_utc, b.duration_minutes,
	CASE WHEN b.status = 'pending' AND b.expires_at <= now() THEN 'expired' ELSE b.status END,
	b.created_at, b.expires_at`

type BookingReadStore struct {
	db repository.DBTX
}

func NewBookingReadStore(db repository.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) GetByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	query := `
		SELECT ` + bookingViewColumns + `,
		       s.id, s.proxy_identifier
		FROM bookings b
		LEFT JOIN proxy_sessions s ON s.booking_id = b.id
		WHERE b.id = $1`

	var view queries.BookingView
	err := r.db.QueryRow(ctx, query, id).Scan(
		&view.ID,
		&view.TeacherID,
		&view.StudentName,
		&view.StudentPhone,
		&view.StudentEmail,
		&view.RequestedTimeUTC,
		&view.DurationMinutes,
		&view.Status,
		&view.CreatedAt,
		&view.ExpiresAt,
		&view.ProxySessionID,
		&view.ProxyIdentifier,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get booking", err)
	}
	return &view, nil
}

func (r *BookingReadStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*queries.BookingListItem, error) {
	const query = `
		SELECT b.id, b.student_name, b.requested_time_utc, b.duration_minutes,
		       CASE WHEN b.status = 'pending' AND b.expires_at <= now() THEN 'expired' ELSE b.status END,
		       b.created_at, b.expires_at
		FROM bookings b
		WHERE b.teacher_id = $1
		ORDER BY b.created_at DESC`

	rows, err := r.db.Query(ctx, query, teacherID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list teacher bookings", err)
	}
	defer rows.Close()

	var items []*queries.BookingListItem
	for rows.Next() {
		var item queries.BookingListItem
		if err := rows.Scan(
			&item.ID,
			&item.StudentName,
			&item.RequestedTimeUTC,
			&item.DurationMinutes,
			&item.Status,
			&item.CreatedAt,
			&item.ExpiresAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking row", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}
	return items, nil
}
