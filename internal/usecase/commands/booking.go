package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tutorlink/internal/domain/booking"
	"tutorlink/internal/domain/proxysession"
	reqdto "tutorlink/internal/handler/dto/request"
	"tutorlink/internal/infra"
	"tutorlink/internal/pkg/clock"
	"tutorlink/internal/pkg/errs"
	"tutorlink/internal/usecase/queries"

	"github.com/google/uuid"
)

var (
	ErrTeacherNotFound         = errs.New("teacher not found")
	ErrSlotConflict            = errs.New("time slot already reserved")
	ErrInsufficientLeadTime    = errs.New("insufficient lead time")
	ErrInvalidBookingRequest   = errs.New("invalid booking request")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrInvalidStatusTransition = errs.New("invalid status transition")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type CreateBookingResult struct {
	Booking    *queries.BookingView
	IsReplayed bool
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, req reqdto.CreateBookingRequest) (*CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, id uuid.UUID) error
	CancelBooking(ctx context.Context, id uuid.UUID) error
}

type bookingCommandsImpl struct {
	bookings      BookingRepository
	sessions      ProxySessionRepository
	teachers      TeacherDirectory
	notifier      NotificationDispatcher
	factory       *booking.Factory
	clock         clock.Clock
	notifyChannel string
}

func NewBookingCommands(
	bookings BookingRepository,
	sessions ProxySessionRepository,
	teachers TeacherDirectory,
	notifier NotificationDispatcher,
	factory *booking.Factory,
	clk clock.Clock,
	notifyChannel string,
) BookingCommands {
	return &bookingCommandsImpl{
		bookings:      bookings,
		sessions:      sessions,
		teachers:      teachers,
		notifier:      notifier,
		factory:       factory,
		clock:         clk,
		notifyChannel: notifyChannel,
	}
}

// CreateBooking runs the admission pipeline: request validation, idempotency
// guard, availability check, atomic insert, session provisioning,
// notification. Validation comes first so a malformed or stale request is a
// 400 for every caller, keyed retries included; a retry that crosses the
// lead-time boundary therefore flips from replay to rejection. Only the
// insert mutates booking state; everything after it is non-fatal.
func (c *bookingCommandsImpl) CreateBooking(
	ctx context.Context,
	req reqdto.CreateBookingRequest,
) (*CreateBookingResult, error) {
	contact, slot, err := c.validateRequest(req)
	if err != nil {
		return nil, err
	}

	if key := req.GetIdempotencyKey(); key != nil {
		replayed, err := c.replayByKey(ctx, *key)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return &CreateBookingResult{Booking: replayed, IsReplayed: true}, nil
		}
	}

	teacherID, err := uuid.Parse(req.TeacherID)
	if err != nil {
		// An unparseable id can never match a teacher; report it the same way.
		return nil, ErrTeacherNotFound
	}

	teacher, err := c.findActiveTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	entity, err := c.newBooking(teacherID, contact, slot, req.GetIdempotencyKey())
	if err != nil {
		return nil, err
	}

	// Advisory fast path; the partial unique index remains the arbiter.
	taken, err := c.bookings.SlotTaken(ctx, teacherID, entity.Slot().Start())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if taken {
		return nil, ErrSlotConflict
	}

	if err := c.bookings.Create(ctx, entity); err != nil {
		switch {
		case infra.IsKind(err, infra.KindSlotConflict):
			// A same-key loser can trip the slot index before the key
			// constraint; which one Postgres reports is an index-order
			// accident. A matching key always means replay, not conflict.
			if result, ok := c.tryReplayByKey(ctx, req); ok {
				return result, nil
			}
			return nil, ErrSlotConflict
		case infra.IsKind(err, infra.KindDuplicateKey):
			// Lost the race to an identical retry: the winner's booking is
			// the result, same as the fast-path replay.
			return c.replayAfterKeyConflict(ctx, req)
		default:
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	session := c.provisionSession(ctx, entity)
	c.dispatchCreated(ctx, entity, session, teacher)

	return &CreateBookingResult{Booking: c.viewFromEntities(entity, session)}, nil
}

func (c *bookingCommandsImpl) ConfirmBooking(ctx context.Context, id uuid.UUID) error {
	entity, err := c.findBooking(ctx, id)
	if err != nil {
		return err
	}

	now := c.clock.Now()
	if err := entity.Confirm(now); err != nil {
		return ErrInvalidStatusTransition
	}

	ok, err := c.bookings.Confirm(ctx, id, now)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !ok {
		// Lost a race between the load and the guarded update.
		return ErrInvalidStatusTransition
	}
	return nil
}

func (c *bookingCommandsImpl) CancelBooking(ctx context.Context, id uuid.UUID) error {
	entity, err := c.findBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := entity.Cancel(); err != nil {
		return ErrInvalidStatusTransition
	}

	ok, err := c.bookings.Cancel(ctx, id)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !ok {
		return ErrInvalidStatusTransition
	}
	return nil
}

// validateRequest applies the pure request rules before any storage access:
// contact shape, slot shape, and the lead-time window at handling time.
func (c *bookingCommandsImpl) validateRequest(req reqdto.CreateBookingRequest) (booking.Contact, booking.Slot, error) {
	contact, err := booking.NewContact(req.StudentName, req.StudentPhone, req.StudentEmail)
	if err != nil {
		return booking.Contact{}, booking.Slot{}, errs.Mark(err, ErrInvalidBookingRequest)
	}

	slot, err := booking.NewSlot(req.RequestedTime, req.DurationMinutes)
	if err != nil {
		return booking.Contact{}, booking.Slot{}, errs.Mark(err, ErrInvalidBookingRequest)
	}

	if err := c.factory.CheckLeadTime(slot); err != nil {
		return booking.Contact{}, booking.Slot{}, ErrInsufficientLeadTime
	}
	return contact, slot, nil
}

func (c *bookingCommandsImpl) newBooking(
	teacherID uuid.UUID,
	contact booking.Contact,
	slot booking.Slot,
	idempotencyKey *string,
) (*booking.Booking, error) {
	entity, err := c.factory.NewBooking(teacherID, contact, slot, idempotencyKey)
	if err != nil {
		if errors.Is(err, booking.ErrLeadTimeNotMet) {
			return nil, ErrInsufficientLeadTime
		}
		return nil, errs.Mark(err, ErrInvalidBookingRequest)
	}
	return entity, nil
}

func (c *bookingCommandsImpl) findBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	entity, err := c.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return entity, nil
}

func (c *bookingCommandsImpl) replayByKey(ctx context.Context, key string) (*queries.BookingView, error) {
	view, err := c.bookings.FindViewByIdempotencyKey(ctx, key)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

// tryReplayByKey reports whether the request's key matches an existing
// booking, converting a constraint race into the winner's result.
func (c *bookingCommandsImpl) tryReplayByKey(ctx context.Context, req reqdto.CreateBookingRequest) (*CreateBookingResult, bool) {
	key := req.GetIdempotencyKey()
	if key == nil {
		return nil, false
	}
	view, err := c.replayByKey(ctx, *key)
	if err != nil || view == nil {
		return nil, false
	}
	return &CreateBookingResult{Booking: view, IsReplayed: true}, true
}

func (c *bookingCommandsImpl) replayAfterKeyConflict(
	ctx context.Context,
	req reqdto.CreateBookingRequest,
) (*CreateBookingResult, error) {
	key := req.GetIdempotencyKey()
	if key == nil {
		// Unreachable unless the key constraint fired without a key.
		return nil, ErrDatabaseOperationFailed
	}
	view, err := c.bookings.FindViewByIdempotencyKey(ctx, *key)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CreateBookingResult{Booking: view, IsReplayed: true}, nil
}

func (c *bookingCommandsImpl) findActiveTeacher(ctx context.Context, id uuid.UUID) (*TeacherSnapshot, error) {
	teacher, err := c.teachers.FindActive(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return teacher, nil
}

// provisionSession never fails the request: the booking is already durable,
// so a session error leaves a degraded-but-recoverable booking and returns
// nil.
func (c *bookingCommandsImpl) provisionSession(ctx context.Context, entity *booking.Booking) *proxysession.ProxySession {
	session := proxysession.New(entity.ID(), entity.ExpiresAt(), c.clock.Now())
	if err := c.sessions.Create(ctx, session); err != nil {
		slog.Error("booking left without proxy session",
			"booking_id", entity.ID(),
			"error", err)
		return nil
	}
	return session
}

func (c *bookingCommandsImpl) dispatchCreated(
	ctx context.Context,
	entity *booking.Booking,
	session *proxysession.ProxySession,
	teacher *TeacherSnapshot,
) {
	n := BookingCreatedNotification{
		BookingID: entity.ID(),
		TeacherID: teacher.ID,
		To:        teacher.Phone,
		Channel:   c.notifyChannel,
		Payload: map[string]any{
			"studentName":   entity.Contact().Name(),
			"requestedTime": entity.Slot().Start(),
			"expiresAt":     entity.ExpiresAt(),
		},
	}
	handle := "your dashboard"
	if session != nil {
		id := session.ID()
		identifier := session.ProxyIdentifier()
		n.ProxySessionID = &id
		n.ProxyIdentifier = &identifier
		handle = identifier
	}
	n.Body = fmt.Sprintf(
		"New booking request from %s for %s. Reply via %s before %s.",
		entity.Contact().Name(),
		entity.Slot().Start().Format("2006-01-02 15:04 MST"),
		handle,
		entity.ExpiresAt().Format("2006-01-02 15:04 MST"),
	)

	c.notifier.BookingCreated(ctx, n)
}

func (c *bookingCommandsImpl) viewFromEntities(entity *booking.Booking, session *proxysession.ProxySession) *queries.BookingView {
	view := &queries.BookingView{
		ID:               entity.ID(),
		TeacherID:        entity.TeacherID(),
		StudentName:      entity.Contact().Name(),
		StudentPhone:     entity.Contact().Phone(),
		StudentEmail:     entity.Contact().Email(),
		RequestedTimeUTC: entity.Slot().Start(),
		DurationMinutes:  int32(entity.Slot().DurationMinutes()),
		Status:           entity.EffectiveStatus(c.clock.Now()).String(),
		CreatedAt:        entity.CreatedAt(),
		ExpiresAt:        entity.ExpiresAt(),
	}
	if session != nil {
		id := session.ID()
		identifier := session.ProxyIdentifier()
		view.ProxySessionID = &id
		view.ProxyIdentifier = &identifier
	}
	return view
}
