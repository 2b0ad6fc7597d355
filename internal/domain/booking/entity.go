package booking

import (
	"errors"
	"time"

	"tutorlink/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrLeadTimeNotMet   = errors.New("lead time requirement not met")
	ErrMissingTeacher   = errors.New("teacher id is required")
	ErrNotPending       = errors.New("booking is not pending")
	ErrAlreadyFinalized = errors.New("booking is already finalized")
)

type Booking struct {
	id             uuid.UUID
	teacherID      uuid.UUID
	contact        Contact
	slot           Slot
	status         Status
	idempotencyKey *string
	createdAt      time.Time
	expiresAt      time.Time
}

// Factory builds new bookings with the service-wide lead time and TTL rules
// applied against an injected clock.
type Factory struct {
	clock       clock.Clock
	minLeadTime time.Duration
	ttl         time.Duration
}

func NewFactory(clk clock.Clock, minLeadTime, ttl time.Duration) *Factory {
	return &Factory{
		clock:       clk,
		minLeadTime: minLeadTime,
		ttl:         ttl,
	}
}

// NewBooking validates the lead-time rule against the current instant and
// fixes expiresAt = createdAt + TTL. The outcome of the lead-time check is
// deliberately tied to handling time, not storage time.
func (f *Factory) NewBooking(teacherID uuid.UUID, contact Contact, slot Slot, idempotencyKey *string) (*Booking, error) {
	if teacherID == uuid.Nil {
		return nil, ErrMissingTeacher
	}

	now := f.clock.Now().UTC()
	if err := f.CheckLeadTime(slot); err != nil {
		return nil, err
	}

	return &Booking{
		id:             uuid.New(),
		teacherID:      teacherID,
		contact:        contact,
		slot:           slot,
		status:         StatusPending,
		idempotencyKey: idempotencyKey,
		createdAt:      now,
		expiresAt:      now.Add(f.ttl),
	}, nil
}

// CheckLeadTime applies the lead-time rule at the current instant, so callers
// can reject a stale request before touching storage.
func (f *Factory) CheckLeadTime(slot Slot) error {
	if !slot.MeetsLeadTimeAt(f.clock.Now().UTC(), f.minLeadTime) {
		return ErrLeadTimeNotMet
	}
	return nil
}

func Reconstruct(
	id, teacherID uuid.UUID,
	contact Contact,
	slot Slot,
	status Status,
	idempotencyKey *string,
	createdAt, expiresAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		teacherID:      teacherID,
		contact:        contact,
		slot:           slot,
		status:         status,
		idempotencyKey: idempotencyKey,
		createdAt:      createdAt,
		expiresAt:      expiresAt,
	}
}

func (b *Booking) Confirm(now time.Time) error {
	if b.status != StatusPending {
		return ErrNotPending
	}
	if b.HasExpired(now) {
		return ErrAlreadyFinalized
	}
	b.status = StatusConfirmed
	return nil
}

func (b *Booking) Cancel() error {
	if b.status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	b.status = StatusCancelled
	return nil
}

func (b *Booking) HasExpired(now time.Time) bool {
	return now.After(b.expiresAt)
}

// EffectiveStatus folds the TTL into the stored status so that readers never
// see a pending booking past its expiry, whether or not the sweeper ran.
func (b *Booking) EffectiveStatus(now time.Time) Status {
	if b.status == StatusPending && b.HasExpired(now) {
		return StatusExpired
	}
	return b.status
}

func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) TeacherID() uuid.UUID    { return b.teacherID }
func (b *Booking) Contact() Contact        { return b.contact }
func (b *Booking) Slot() Slot              { return b.slot }
func (b *Booking) Status() Status          { return b.status }
func (b *Booking) IdempotencyKey() *string { return b.idempotencyKey }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) ExpiresAt() time.Time    { return b.expiresAt }
