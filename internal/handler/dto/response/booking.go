package response

import (
	"time"

	"tutorlink/internal/usecase/queries"

	"github.com/google/uuid"
)

// BookingCreatedResponse is the admission-control contract: proof the booking
// exists plus the channel handle the messaging subsystem attaches to.
type BookingCreatedResponse struct {
	BookingID      uuid.UUID `json:"bookingId"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expiresAt"`
	ProxySessionID string    `json:"proxySessionId"`
}

type BookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	TeacherID       uuid.UUID  `json:"teacherId"`
	StudentName     string     `json:"studentName"`
	StudentPhone    string     `json:"studentPhone"`
	StudentEmail    *string    `json:"studentEmail,omitempty"`
	RequestedTime   time.Time  `json:"requestedTime"`
	DurationMinutes int32      `json:"durationMinutes"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	ProxySessionID  *uuid.UUID `json:"proxySessionId,omitempty"`
	ProxyIdentifier *string    `json:"proxyIdentifier,omitempty"`
}

type BookingListResponse struct {
	ID              uuid.UUID `json:"id"`
	StudentName     string    `json:"studentName"`
	RequestedTime   time.Time `json:"requestedTime"`
	DurationMinutes int32     `json:"durationMinutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

func FromCreatedView(view *queries.BookingView) *BookingCreatedResponse {
	resp := &BookingCreatedResponse{
		BookingID: view.ID,
		Status:    view.Status,
		ExpiresAt: view.ExpiresAt,
	}
	if view.ProxySessionID != nil {
		resp.ProxySessionID = view.ProxySessionID.String()
	}
	return resp
}

func FromBookingView(view *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:              view.ID,
		TeacherID:       view.TeacherID,
		StudentName:     view.StudentName,
		StudentPhone:    view.StudentPhone,
		StudentEmail:    view.StudentEmail,
		RequestedTime:   view.RequestedTimeUTC,
		DurationMinutes: view.DurationMinutes,
		Status:          view.Status,
		CreatedAt:       view.CreatedAt,
		ExpiresAt:       view.ExpiresAt,
		ProxySessionID:  view.ProxySessionID,
		ProxyIdentifier: view.ProxyIdentifier,
	}
}

func FromBookingListItem(item *queries.BookingListItem) *BookingListResponse {
	return &BookingListResponse{
		ID:              item.ID,
		StudentName:     item.StudentName,
		RequestedTime:   item.RequestedTimeUTC,
		DurationMinutes: item.DurationMinutes,
		Status:          item.Status,
		CreatedAt:       item.CreatedAt,
		ExpiresAt:       item.ExpiresAt,
	}
}
