package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ilqarli/show-booking/internal/service"
)

// stubReservations lets tests drive the handler's error mapping without
// a database.
type stubReservations struct {
	reserveErr error
	bookingID  uint64
}

func (s *stubReservations) CreateShow(ctx context.Context, p service.CreateShowParams) (uint64, error) {
	return 0, nil
}

func (s *stubReservations) Reserve(ctx context.Context, showID, userID uint64, seatIDs []uint64) (uint64, error) {
	return s.bookingID, s.reserveErr
}

func reserveRequestContext(t *testing.T, showID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/shows/"+showID+"/reserve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/shows/:id/reserve")
	c.SetParamNames("id")
	c.SetParamValues(showID)
	c.Set("user_id", float64(42))
	c.Set("role", "USER")
	return c, rec
}

func TestReserveErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", service.ErrValidation, http.StatusBadRequest},
		{"show not found", service.ErrShowNotFound, http.StatusNotFound},
		{"unknown seats", service.ErrUnknownSeats, http.StatusNotFound},
		{"show inactive", service.ErrShowInactive, http.StatusConflict},
		{"insufficient capacity", service.ErrInsufficientCapacity, http.StatusConflict},
		{"seats already booked", service.ErrSeatsAlreadyBooked, http.StatusConflict},
		{"transient", service.ErrTransient, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &BookingHandler{Svc: &stubReservations{reserveErr: tc.err}}
			c, rec := reserveRequestContext(t, "1", `{"seat_ids":[1,2]}`)

			assert.NoError(t, h.Reserve(c))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestReserveRejectsBadShowID(t *testing.T) {
	h := &BookingHandler{Svc: &stubReservations{}}
	c, rec := reserveRequestContext(t, "abc", `{"seat_ids":[1]}`)

	assert.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReserveRequiresAuthenticatedUser(t *testing.T) {
	h := &BookingHandler{Svc: &stubReservations{}}
	c, rec := reserveRequestContext(t, "1", `{"seat_ids":[1]}`)
	c.Set("user_id", nil)

	assert.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	c.Set("user_id", float64(7))
	id, ok := currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	c.Set("user_id", "13")
	id, ok = currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(13), id)

	c.Set("user_id", "not-a-number")
	_, ok = currentUserID(c)
	assert.False(t, ok)

	c.Set("user_id", nil)
	_, ok = currentUserID(c)
	assert.False(t, ok)
}
