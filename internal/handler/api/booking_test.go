//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"tutorlink/internal/handler/api"
	resdto "tutorlink/internal/handler/dto/response"
	"tutorlink/internal/usecase/commands"
	"tutorlink/internal/usecase/queries"
	"tutorlink/tests/common/helper"
	commandsmock "tutorlink/tests/mock/commands"
	queriesmock "tutorlink/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler

	callerID uuid.UUID
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)

	s.callerID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		c.Set("user_id", s.callerID)
		c.Set("user_role", "teacher")
		c.Next()
	}

	s.router.POST("/api/bookings", s.handler.CreateBooking)
	s.router.GET("/api/bookings/:id", authMiddleware, s.handler.GetBooking)
	s.router.POST("/api/bookings/:id/confirm", authMiddleware, s.handler.ConfirmBooking)
	s.router.POST("/api/bookings/:id/cancel", authMiddleware, s.handler.CancelBooking)
	s.router.GET("/api/teachers/:id/bookings", authMiddleware, s.handler.ListTeacherBookings)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func validCreateBody() map[string]any {
	return map[string]any{
		"teacherId":     uuid.NewString(),
		"studentName":   "Hanako Sato",
		"studentPhone":  "+81-90-0000-0000",
		"requestedTime": time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func sampleView() *queries.BookingView {
	sessionID := uuid.New()
	identifier := "relay-abc123"
	return &queries.BookingView{
		ID:               uuid.New(),
		TeacherID:        uuid.New(),
		StudentName:      "Hanako Sato",
		StudentPhone:     "+81-90-0000-0000",
		RequestedTimeUTC: time.Now().UTC().Add(2 * time.Hour),
		DurationMinutes:  60,
		Status:           "pending",
		CreatedAt:        time.Now().UTC(),
		ExpiresAt:        time.Now().UTC().Add(72 * time.Hour),
		ProxySessionID:   &sessionID,
		ProxyIdentifier:  &identifier,
	}
}

// ================================================================================
// CreateBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/api/bookings"

	s.Run("success: returns 201 Created with session handle", func() {
		view := sampleView()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: view}, nil)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, validCreateBody(), "")

		var resp resdto.BookingCreatedResponse
		helper.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal(view.ID, resp.BookingID)
		s.Equal("pending", resp.Status)
		s.Equal(view.ProxySessionID.String(), resp.ProxySessionID)
	})

	s.Run("idempotent replay returns 200 OK", func() {
		view := sampleView()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: view, IsReplayed: true}, nil)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, validCreateBody(), "")

		var resp resdto.BookingCreatedResponse
		helper.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal(view.ID, resp.BookingID)
	})

	s.Run("missing required fields return 400", func() {
		for _, field := range []string{"teacherId", "studentName", "studentPhone", "requestedTime"} {
			body := validCreateBody()
			delete(body, field)

			rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
			helper.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
		}
	})

	s.Run("non-positive duration returns 400", func() {
		body := validCreateBody()
		body["durationMinutes"] = -30

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
		helper.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("command errors map to status codes", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
		}{
			{"unknown teacher", commands.ErrTeacherNotFound, http.StatusNotFound},
			{"slot conflict", commands.ErrSlotConflict, http.StatusConflict},
			{"lead time", commands.ErrInsufficientLeadTime, http.StatusBadRequest},
			{"invalid request", commands.ErrInvalidBookingRequest, http.StatusBadRequest},
			{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(nil, tc.err)

				rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, validCreateBody(), "")
				helper.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
			})
		}
	})
}

// ================================================================================
// GetBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestGetBooking() {
	view := sampleView()
	url := "/api/bookings/" + view.ID.String()

	s.Run("success", func() {
		s.mockQueries.EXPECT().GetBooking(gomock.Any(), view.ID).Return(view, nil)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var resp resdto.BookingResponse
		helper.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal(view.ID, resp.ID)
		s.Equal(view.StudentName, resp.StudentName)
	})

	s.Run("not found", func() {
		s.mockQueries.EXPECT().GetBooking(gomock.Any(), view.ID).Return(nil, queries.ErrBookingNotFound)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		helper.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("malformed id", func() {
		rec := helper.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings/not-a-uuid", nil, "bearer-token")
		helper.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid ID format")
	})

	s.Run("unauthenticated", func() {
		rec := helper.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		helper.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "")
	})
}

// ================================================================================
// ListTeacherBookings
// ================================================================================

func (s *BookingHandlerTestSuite) TestListTeacherBookings() {
	s.Run("teacher lists own bookings", func() {
		items := []*queries.BookingListItem{
			{ID: uuid.New(), StudentName: "Hanako Sato", Status: "pending"},
			{ID: uuid.New(), StudentName: "Jiro Suzuki", Status: "confirmed"},
		}
		s.mockQueries.EXPECT().ListTeacherBookings(gomock.Any(), s.callerID).Return(items, nil)

		url := "/api/teachers/" + s.callerID.String() + "/bookings"
		rec := helper.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var resp []resdto.BookingListResponse
		helper.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Len(resp, 2)
	})

	s.Run("teacher cannot list another teacher's bookings", func() {
		url := "/api/teachers/" + uuid.NewString() + "/bookings"
		rec := helper.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		helper.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "")
	})
}

// ================================================================================
// Confirm / Cancel
// ================================================================================

func (s *BookingHandlerTestSuite) TestConfirmBooking() {
	id := uuid.New()
	url := "/api/bookings/" + id.String() + "/confirm"

	s.Run("success", func() {
		s.mockCommands.EXPECT().ConfirmBooking(gomock.Any(), id).Return(nil)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		helper.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("not found", func() {
		s.mockCommands.EXPECT().ConfirmBooking(gomock.Any(), id).Return(commands.ErrBookingNotFound)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		helper.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("wrong state", func() {
		s.mockCommands.EXPECT().ConfirmBooking(gomock.Any(), id).Return(commands.ErrInvalidStatusTransition)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		helper.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}

func (s *BookingHandlerTestSuite) TestCancelBooking() {
	id := uuid.New()
	url := "/api/bookings/" + id.String() + "/cancel"

	s.Run("success", func() {
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), id).Return(nil)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		helper.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("already finalized", func() {
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), id).Return(commands.ErrInvalidStatusTransition)

		rec := helper.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		helper.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}
