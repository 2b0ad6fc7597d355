// Package proxysession models the anonymized relay channel created per
// booking. The proxy identifier is the only contact handle either side sees.
package proxysession

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/google/uuid"
)

const handleBytes = 8

var handleEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type ProxySession struct {
	id              uuid.UUID
	bookingID       uuid.UUID
	proxyIdentifier string
	expiresAt       time.Time
	createdAt       time.Time
}

// New provisions a session bound 1:1 to the booking. expiresAt mirrors the
// owning booking's expiry; the session has no lifecycle of its own.
func New(bookingID uuid.UUID, bookingExpiresAt, now time.Time) *ProxySession {
	return &ProxySession{
		id:              uuid.New(),
		bookingID:       bookingID,
		proxyIdentifier: newProxyIdentifier(),
		expiresAt:       bookingExpiresAt,
		createdAt:       now.UTC(),
	}
}

// newProxyIdentifier returns a masked relay handle. It is random, so nothing
// about the student's real contact details can be recovered from it.
func newProxyIdentifier() string {
	buf := make([]byte, handleBytes)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing means the platform CSPRNG is broken; fall back
		// to a UUID-derived handle rather than aborting the booking.
		return "relay-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	}
	return "relay-" + strings.ToLower(handleEncoding.EncodeToString(buf))
}

func (s *ProxySession) ID() uuid.UUID           { return s.id }
func (s *ProxySession) BookingID() uuid.UUID    { return s.bookingID }
func (s *ProxySession) ProxyIdentifier() string { return s.proxyIdentifier }
func (s *ProxySession) ExpiresAt() time.Time    { return s.expiresAt }
func (s *ProxySession) CreatedAt() time.Time    { return s.createdAt }
