package commands

import (
	"context"
	"time"

	"tutorlink/internal/domain/booking"
	"tutorlink/internal/domain/proxysession"
	"tutorlink/internal/usecase/queries"

	"github.com/google/uuid"
)

// Write-side snapshot of a teacher; keeps commands off the read-side query types.
type TeacherSnapshot struct {
	ID          uuid.UUID
	DisplayName string
	Phone       string
	Email       *string
	Active      bool
}

type BookingRepository interface {
	// Create performs the single atomic insert. Conflicts surface as
	// infra.KindSlotConflict (slot index) or infra.KindDuplicateKey
	// (idempotency key).
	Create(ctx context.Context, b *booking.Booking) error
	// SlotTaken is the advisory pre-check; the unique index has the last word.
	SlotTaken(ctx context.Context, teacherID uuid.UUID, requestedTime time.Time) (bool, error)
	FindViewByIdempotencyKey(ctx context.Context, key string) (*queries.BookingView, error)
	// FindByID rehydrates the domain entity for transition decisions.
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// Confirm/Cancel apply guarded transitions and report whether a row
	// changed; the guard re-checks status so a stale load cannot overwrite a
	// concurrent transition.
	Confirm(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
}

type ProxySessionRepository interface {
	Create(ctx context.Context, s *proxysession.ProxySession) error
}

// TeacherDirectory is the read-only collaborator lookup. Absent and inactive
// teachers are both reported as infra.KindNotFound.
type TeacherDirectory interface {
	FindActive(ctx context.Context, id uuid.UUID) (*TeacherSnapshot, error)
}

type BookingCreatedNotification struct {
	BookingID       uuid.UUID      `json:"bookingId"`
	TeacherID       uuid.UUID      `json:"teacherId"`
	To              string         `json:"to"`
	Channel         string         `json:"channel"`
	Body            string         `json:"body"`
	Payload         map[string]any `json:"payload,omitempty"`
	ProxySessionID  *uuid.UUID     `json:"proxySessionId,omitempty"`
	ProxyIdentifier *string        `json:"proxyIdentifier,omitempty"`
}

// NotificationDispatcher is fire-and-forget: implementations own their
// timeouts and log failures, they never propagate them.
type NotificationDispatcher interface {
	BookingCreated(ctx context.Context, n BookingCreatedNotification)
}
