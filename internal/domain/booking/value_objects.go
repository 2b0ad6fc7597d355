package booking

import (
	"errors"
	"strings"
	"time"
)

const DefaultDurationMinutes = 60

var (
	ErrEmptyStudentName  = errors.New("student name is required")
	ErrEmptyStudentPhone = errors.New("student phone is required")
	ErrInvalidDuration   = errors.New("duration must be a positive number of minutes")
	ErrZeroRequestedTime = errors.New("requested time is required")
)

// Slot is the (start, duration) pair a booking reserves. Start is always
// normalized to UTC so the uniqueness key compares instants, not zones.
type Slot struct {
	start           time.Time
	durationMinutes int
}

func NewSlot(start time.Time, durationMinutes int) (Slot, error) {
	if start.IsZero() {
		return Slot{}, ErrZeroRequestedTime
	}
	if durationMinutes == 0 {
		durationMinutes = DefaultDurationMinutes
	}
	if durationMinutes < 0 {
		return Slot{}, ErrInvalidDuration
	}
	return Slot{start: start.UTC(), durationMinutes: durationMinutes}, nil
}

func (s Slot) Start() time.Time {
	return s.start
}

func (s Slot) DurationMinutes() int {
	return s.durationMinutes
}

func (s Slot) End() time.Time {
	return s.start.Add(time.Duration(s.durationMinutes) * time.Minute)
}

func (s Slot) MeetsLeadTimeAt(now time.Time, minLead time.Duration) bool {
	return !s.start.Before(now.Add(minLead))
}

// Contact carries the student's details as opaque strings. The service never
// interprets the phone number; it only relays it to the proxy channel.
type Contact struct {
	name  string
	phone string
	email *string
}

func NewContact(name, phone string, email *string) (Contact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return Contact{}, ErrEmptyStudentName
	}
	if phone == "" {
		return Contact{}, ErrEmptyStudentPhone
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			email = nil
		} else {
			email = &trimmed
		}
	}
	return Contact{name: name, phone: phone, email: email}, nil
}

func (c Contact) Name() string {
	return c.name
}

func (c Contact) Phone() string {
	return c.phone
}

func (c Contact) Email() *string {
	return c.email
}
