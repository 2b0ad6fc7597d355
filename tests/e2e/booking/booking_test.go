//go:build e2e

package booking_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"tutorlink/internal/handler/dto/response"
	"tutorlink/internal/pkg/jwt"
	"tutorlink/tests/common/dbtest"
	"tutorlink/tests/common/helper"
	"tutorlink/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const bookingsURL = "/api/bookings"

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

func (s *BookingSuite) createRequestBody(teacherID string, start time.Time) map[string]any {
	return map[string]any{
		"teacherId":     teacherID,
		"studentName":   "Hanako Sato",
		"studentPhone":  "+81-90-0000-0000",
		"requestedTime": start.Format(time.RFC3339),
	}
}

func (s *BookingSuite) teacherToken(t *testing.T, teacherID uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewService(s.Config.JWT.Secret).GenerateToken(teacherID, "teacher", time.Hour)
	require.NoError(t, err)
	return token
}

// =============================================================================
// TestCreateBooking - reservation admission API tests
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: booking is created with a proxy session", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)
		start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody(teacherID.String(), start), "")

		var created response.BookingCreatedResponse
		helper.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.Equal(t, "pending", created.Status)
		require.NotEmpty(t, created.ProxySessionID)
		require.WithinDuration(t, time.Now().Add(72*time.Hour), created.ExpiresAt, time.Minute)

		require.Equal(t, "pending", dbtest.BookingStatus(t, s.DB, created.BookingID))
		require.Equal(t, 1, dbtest.CountActiveBookingsForSlot(t, s.DB, teacherID, start))
	})

	s.Run("Conflict case: second request for the same slot is rejected", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)
		start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
		body := s.createRequestBody(teacherID.String(), start)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
		require.Equal(t, http.StatusCreated, w.Code)

		// Different student, same slot
		body["studentName"] = "Jiro Suzuki"
		w = helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
		helper.AssertErrorResponse(t, w, http.StatusConflict, "")

		require.Equal(t, 1, dbtest.CountActiveBookingsForSlot(t, s.DB, teacherID, start))
	})

	s.Run("Idempotency case: retry with the same key replays the first booking", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)
		start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
		body := s.createRequestBody(teacherID.String(), start)
		body["idempotencyKey"] = "retry-key-001"

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
		var first response.BookingCreatedResponse
		helper.AssertSuccessResponse(t, w, http.StatusCreated, &first)

		w = helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
		var replayed response.BookingCreatedResponse
		helper.AssertSuccessResponse(t, w, http.StatusOK, &replayed)

		require.Equal(t, first.BookingID, replayed.BookingID)
		require.Equal(t, 1, dbtest.CountActiveBookingsForSlot(t, s.DB, teacherID, start))
	})

	s.Run("Unknown teacher: unparseable and absent ids both return 404", func() {
		t := s.T()

		start := time.Now().UTC().Add(2 * time.Hour)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody("unknown-id", start), "")
		helper.AssertErrorResponse(t, w, http.StatusNotFound, "")

		w = helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody(uuid.NewString(), start), "")
		helper.AssertErrorResponse(t, w, http.StatusNotFound, "")
	})

	s.Run("Inactive teacher returns 404", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Retired Sensei", false)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody(teacherID.String(), time.Now().UTC().Add(2*time.Hour)), "")
		helper.AssertErrorResponse(t, w, http.StatusNotFound, "")
	})

	s.Run("Lead time violation returns 400", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody(teacherID.String(), time.Now().UTC().Add(10*time.Minute)), "")
		helper.AssertErrorResponse(t, w, http.StatusBadRequest, "")
	})

	s.Run("Lead time violation with unknown teacher returns 400", func() {
		t := s.T()

		// The request itself is invalid, so the teacher lookup never decides
		// the outcome.
		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody(uuid.NewString(), time.Now().UTC().Add(10*time.Minute)), "")
		helper.AssertErrorResponse(t, w, http.StatusBadRequest, "")
	})

	s.Run("Cancelled slot can be rebooked", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)
		start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
		body := s.createRequestBody(teacherID.String(), start)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
		var first response.BookingCreatedResponse
		helper.AssertSuccessResponse(t, w, http.StatusCreated, &first)

		token := s.teacherToken(t, teacherID)
		w = helper.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+first.BookingID.String()+"/cancel", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		w = helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
		var second response.BookingCreatedResponse
		helper.AssertSuccessResponse(t, w, http.StatusCreated, &second)
		require.NotEqual(t, first.BookingID, second.BookingID)
	})
}

// =============================================================================
// TestConcurrentBooking - at-most-one winner under racing requests
// =============================================================================

func (s *BookingSuite) TestConcurrentBooking() {
	s.Run("Exactly one of N racing requests wins the slot", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)
		start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)

		const workers = 10
		codes := make([]int, workers)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
					s.createRequestBody(teacherID.String(), start), "")
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		var created, conflicted int
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			default:
				t.Fatalf("unexpected status code %d", code)
			}
		}

		require.Equal(t, 1, created, "exactly one request should win the slot")
		require.Equal(t, workers-1, conflicted)
		require.Equal(t, 1, dbtest.CountActiveBookingsForSlot(t, s.DB, teacherID, start))
	})
}

// =============================================================================
// TestDashboard - authenticated booking management
// =============================================================================

func (s *BookingSuite) TestDashboard() {
	s.Run("Teacher confirms, views and lists bookings", func() {
		t := s.T()

		teacherID := dbtest.CreateTestTeacher(t, s.DB, "Taro Yamada", true)
		start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)

		w := helper.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			s.createRequestBody(teacherID.String(), start), "")
		var created response.BookingCreatedResponse
		helper.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		token := s.teacherToken(t, teacherID)
		bookingURL := bookingsURL + "/" + created.BookingID.String()

		w = helper.PerformRequest(t, s.Router, http.MethodPost, bookingURL+"/confirm", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "confirmed", dbtest.BookingStatus(t, s.DB, created.BookingID))

		// Confirming twice is a state conflict
		w = helper.PerformRequest(t, s.Router, http.MethodPost, bookingURL+"/confirm", nil, token)
		helper.AssertErrorResponse(t, w, http.StatusConflict, "")

		w = helper.PerformRequest(t, s.Router, http.MethodGet, bookingURL, nil, token)
		var view response.BookingResponse
		helper.AssertSuccessResponse(t, w, http.StatusOK, &view)
		require.Equal(t, "confirmed", view.Status)
		require.NotNil(t, view.ProxyIdentifier)

		w = helper.PerformRequest(t, s.Router, http.MethodGet,
			"/api/teachers/"+teacherID.String()+"/bookings", nil, token)
		var list []response.BookingListResponse
		helper.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Len(t, list, 1)

		// Another teacher's listing is forbidden
		otherToken := s.teacherToken(t, uuid.New())
		w = helper.PerformRequest(t, s.Router, http.MethodGet,
			"/api/teachers/"+teacherID.String()+"/bookings", nil, otherToken)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Dashboard routes require a token", func() {
		t := s.T()

		w := helper.PerformRequest(t, s.Router, http.MethodGet,
			bookingsURL+"/"+uuid.NewString(), nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
