package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ilqarli/show-booking/internal/model"
	"github.com/ilqarli/show-booking/internal/repository"
	"github.com/ilqarli/show-booking/internal/service"
)

// BookingHandler serves reservation and booking-read endpoints for
// authenticated users.
type BookingHandler struct {
	Svc      service.ReservationService
	Bookings *repository.BookingRepo
}

type reserveRequest struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

// Reserve claims the requested seats of a show for the caller. The
// whole attempt is atomic; on any conflict nothing is reserved and the
// error says why.
func (h *BookingHandler) Reserve(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	bookingID, err := h.Svc.Reserve(c.Request().Context(), showID, userID, req.SeatIDs)
	if err != nil {
		return h.reserveError(c, err)
	}
	detail, derr := h.loadDetail(c, bookingID)
	if derr != nil {
		c.Logger().Errorf("reserve: read back booking %d: %v", bookingID, derr)
		return c.JSON(http.StatusCreated, echo.Map{"booking_id": bookingID, "status": model.BookingConfirmed})
	}
	return c.JSON(http.StatusCreated, detail)
}

// reserveError maps the engine's typed errors onto HTTP statuses.
func (h *BookingHandler) reserveError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrShowNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	case errors.Is(err, service.ErrUnknownSeats):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "one or more seats do not belong to this show"})
	case errors.Is(err, service.ErrShowInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "show is not open for booking"})
	case errors.Is(err, service.ErrInsufficientCapacity):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
	case errors.Is(err, service.ErrSeatsAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more seats are already booked"})
	case errors.Is(err, service.ErrTransient):
		c.Logger().Errorf("reserve: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporary failure, please retry"})
	default:
		c.Logger().Errorf("reserve: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reserve seats"})
	}
}

// MyBookings lists the caller's bookings, newest first, with show and
// seat details.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Errorf("my bookings for user %d: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// GetBooking returns one booking. Users see only their own bookings;
// admins see any.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		c.Logger().Errorf("get booking %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
	}
	if b.UserID != userID && currentRole(c) != model.RoleAdmin {
		// Hide existence from other users.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	detail, err := h.Bookings.Hydrate(c.Request().Context(), b)
	if err != nil {
		c.Logger().Errorf("get booking %d: hydrate: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *BookingHandler) loadDetail(c echo.Context, bookingID uint64) (*repository.BookingDetail, error) {
	b, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		return nil, err
	}
	return h.Bookings.Hydrate(c.Request().Context(), b)
}
