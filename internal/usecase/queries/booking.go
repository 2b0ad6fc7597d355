package queries

import (
	"context"
	"time"

	"tutorlink/internal/infra"
	"tutorlink/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrBookingNotFound = errs.New("booking not found")

// BookingView is the read model returned to dashboard callers. Status is the
// effective status: pending rows past expires_at surface as "expired" even
// before the sweeper persists the transition.
type BookingView struct {
	ID               uuid.UUID
	TeacherID        uuid.UUID
	StudentName      string
	StudentPhone     string
	StudentEmail     *string
	RequestedTimeUTC time.Time
	DurationMinutes  int32
	Status           string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	ProxySessionID   *uuid.UUID
	ProxyIdentifier  *string
}

type BookingListItem struct {
	ID               uuid.UUID
	StudentName      string
	RequestedTimeUTC time.Time
	DurationMinutes  int32
	Status           string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

type BookingReadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*BookingListItem, error)
}

type BookingQueries interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListTeacherBookings(ctx context.Context, teacherID uuid.UUID) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	readStore BookingReadStore
}

func NewBookingQueries(readStore BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{readStore: readStore}
}

func (q *bookingQueriesImpl) GetBooking(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	view, err := q.readStore.GetByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to get booking")
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListTeacherBookings(ctx context.Context, teacherID uuid.UUID) ([]*BookingListItem, error) {
	items, err := q.readStore.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list teacher bookings")
	}
	return items, nil
}
