package repository

import (
	"context"
	"errors"
	"time"

	"tutorlink/internal/domain/booking"
	"tutorlink/internal/infra"
	"tutorlink/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from db/schema.sql; the 23505 translation below is the
// authoritative race arbiter for both slot and idempotency-key conflicts.
const (
	constraintActiveSlot     = "bookings_active_slot_key"
	constraintIdempotencyKey = "bookings_idempotency_key_key"
)

const uniqueViolation = "23505"
const foreignKeyViolation = "23503"

// effectiveStatusExpr folds expiry into reads so callers never see a pending
// booking past its TTL, independent of the sweeper.
const effectiveStatusExpr = `CASE WHEN b.status = 'pending' AND b.expires_at <= now() THEN 'expired' ELSE b.status END`

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	const query = `
		INSERT INTO bookings (
			id, teacher_id, student_name, student_phone, student_email,
			requested_time_utc, duration_minutes, idempotency_key, status,
			created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		b.ID(),
		b.TeacherID(),
		b.Contact().Name(),
		b.Contact().Phone(),
		b.Contact().Email(),
		b.Slot().Start(),
		b.Slot().DurationMinutes(),
		b.IdempotencyKey(),
		b.Status().String(),
		b.CreatedAt(),
		b.ExpiresAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintActiveSlot:
				return infra.WrapRepoErr("slot already reserved", err, infra.KindSlotConflict)
			case pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintIdempotencyKey:
				return infra.WrapRepoErr("idempotency key already used", err, infra.KindDuplicateKey)
			case pgErr.Code == foreignKeyViolation:
				return infra.WrapRepoErr("teacher no longer exists", err, infra.KindNotFound)
			}
		}
		return infra.WrapRepoErr("failed to create booking", err)
	}

	return nil
}

func (r *BookingRepository) SlotTaken(ctx context.Context, teacherID uuid.UUID, requestedTime time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE teacher_id = $1 AND requested_time_utc = $2 AND status <> 'cancelled'
		)`

	var taken bool
	if err := r.db.QueryRow(ctx, query, teacherID, requestedTime).Scan(&taken); err != nil {
		return false, infra.WrapRepoErr("failed to check slot availability", err)
	}
	return taken, nil
}

func (r *BookingRepository) FindViewByIdempotencyKey(ctx context.Context, key string) (*queries.BookingView, error) {
	query := `
		SELECT b.id, b.teacher_id, b.student_name, b.student_phone, b.student_email,
		       b.requested_time_utc, b.duration_minutes,
		       ` + effectiveStatusExpr + `,
		       b.created_at, b.expires_at,
		       s.id, s.proxy_identifier
		FROM bookings b
		LEFT JOIN proxy_sessions s ON s.booking_id = b.id
		WHERE b.idempotency_key = $1`

	view, err := scanBookingView(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("no booking for idempotency key", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by idempotency key", err)
	}
	return view, nil
}

func (r *BookingRepository) Confirm(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings SET status = 'confirmed'
		WHERE id = $1 AND status = 'pending' AND expires_at > $2`

	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to confirm booking", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
		UPDATE bookings SET status = 'cancelled'
		WHERE id = $1 AND status IN ('pending', 'confirmed')`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, infra.WrapRepoErr("failed to cancel booking", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindByID rehydrates the stored row into a domain entity so transition rules
// run in the domain, not in SQL alone.
func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	const query = `
		SELECT id, teacher_id, student_name, student_phone, student_email,
		       requested_time_utc, duration_minutes, idempotency_key, status,
		       created_at, expires_at
		FROM bookings
		WHERE id = $1`

	var (
		bookingID, teacherID     uuid.UUID
		studentName, phone       string
		email, idempotencyKey    *string
		requestedTime, createdAt time.Time
		expiresAt                time.Time
		durationMinutes          int
		statusStr                string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&bookingID,
		&teacherID,
		&studentName,
		&phone,
		&email,
		&requestedTime,
		&durationMinutes,
		&idempotencyKey,
		&statusStr,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}

	contact, err := booking.NewContact(studentName, phone, email)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking contact is invalid", err)
	}
	slot, err := booking.NewSlot(requestedTime, durationMinutes)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking slot is invalid", err)
	}
	status := booking.Status(statusStr)
	if !status.IsValid() {
		return nil, infra.WrapRepoErr("stored booking status is unknown: "+statusStr, nil)
	}

	return booking.Reconstruct(bookingID, teacherID, contact, slot, status, idempotencyKey, createdAt, expiresAt), nil
}

// ExpireDue settles pending bookings past their TTL. Reads do not depend on
// this; it exists so dashboards and the slot index see stored state.
func (r *BookingRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE bookings SET status = 'expired'
		WHERE status = 'pending' AND expires_at <= $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire due bookings", err)
	}
	return tag.RowsAffected(), nil
}

func scanBookingView(row pgx.Row) (*queries.BookingView, error) {
	var view queries.BookingView
	err := row.Scan(
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
		return nil, err
	}
	return &view, nil
}
