package request

import (
	"strings"
	"time"
)

type CreateBookingRequest struct {
	TeacherID       string    `json:"teacherId" binding:"required"`
	StudentName     string    `json:"studentName" binding:"required"`
	StudentPhone    string    `json:"studentPhone" binding:"required"`
	StudentEmail    *string   `json:"studentEmail,omitempty"`
	RequestedTime   time.Time `json:"requestedTime" binding:"required"`
	DurationMinutes int       `json:"durationMinutes,omitempty" binding:"omitempty,gt=0"`
	IdempotencyKey  *string   `json:"idempotencyKey,omitempty"`
}

// GetIdempotencyKey normalizes the optional key: whitespace-only keys count
// as absent.
func (r CreateBookingRequest) GetIdempotencyKey() *string {
	if r.IdempotencyKey == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*r.IdempotencyKey)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
