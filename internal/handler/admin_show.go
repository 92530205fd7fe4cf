package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ilqarli/show-booking/internal/repository"
	"github.com/ilqarli/show-booking/internal/service"
)

// AdminShowHandler serves the admin surface: show creation and
// deactivation, full show listings, per-show bookings and a manual
// sweep trigger.
type AdminShowHandler struct {
	Shows    *repository.ShowRepo
	Bookings *repository.BookingRepo
	Svc      service.ReservationService
	Sweeper  *service.Sweeper
}

type createShowRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"` // RFC3339
	TotalSeats  uint32  `json:"total_seats"`
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// CreateShow creates a show and its generated seat inventory.
func (h *AdminShowHandler) CreateShow(c echo.Context) error {
	var req createShowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	if !start.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be in the future"})
	}
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	id, err := h.Svc.CreateShow(c.Request().Context(), service.CreateShowParams{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartTime:   start,
		TotalSeats:  req.TotalSeats,
		CreatedBy:   userID,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		c.Logger().Errorf("create show: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create show"})
	}
	show, err := h.Shows.GetByID(c.Request().Context(), id)
	if err != nil {
		c.Logger().Errorf("create show: read back %d: %v", id, err)
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, show)
}

// ListShows returns every show, including inactive ones.
func (h *AdminShowHandler) ListShows(c echo.Context) error {
	shows, err := h.Shows.ListAll(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list shows: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list shows"})
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// SetShowActive flips a show's active flag. Deactivation stops new
// reservations without touching existing bookings.
func (h *AdminShowHandler) SetShowActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Shows.SetActive(c.Request().Context(), id, req.IsActive); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		c.Logger().Errorf("set show %d active=%v: %v", id, req.IsActive, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update show"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": req.IsActive})
}

// ListShowBookings returns every booking of a show with the booking
// user's email, hydrated with seats.
func (h *AdminShowHandler) ListShowBookings(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Shows.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		c.Logger().Errorf("list bookings for show %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bookings"})
	}
	bookings, err := h.Bookings.ListByShow(ctx, id)
	if err != nil {
		c.Logger().Errorf("list bookings for show %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// SweepNow triggers an immediate sweep of expired pending bookings and
// reports how many were reclaimed.
func (h *AdminShowHandler) SweepNow(c echo.Context) error {
	n, err := h.Sweeper.Sweep(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("manual sweep: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reclaimed": n})
}
