package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ilqarli/show-booking/internal/repository"
	"github.com/ilqarli/show-booking/internal/service"
)

// BrowseHandler serves the public, unauthenticated browse endpoints.
// Each availability read is preceded by a defensive sweep so that
// counters and seat maps reflect reclaimed holds even when the
// background sweeper is between ticks. A failing sweep is logged and
// the read proceeds with possibly stale data.
type BrowseHandler struct {
	Shows   *repository.ShowRepo
	Seats   *repository.SeatRepo
	Sweeper *service.Sweeper
}

// ListShows returns active, upcoming shows with their availability.
func (h *BrowseHandler) ListShows(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Sweeper.Sweep(ctx); err != nil {
		c.Logger().Warnf("browse: pre-read sweep: %v", err)
	}
	shows, err := h.Shows.ListActive(ctx, time.Now())
	if err != nil {
		c.Logger().Errorf("browse: list shows: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list shows"})
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// GetShow returns a single show by ID.
func (h *BrowseHandler) GetShow(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sweeper.Sweep(ctx); err != nil {
		c.Logger().Warnf("browse: pre-read sweep: %v", err)
	}
	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		c.Logger().Errorf("browse: get show %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load show"})
	}
	return c.JSON(http.StatusOK, show)
}

// ListSeats returns the full seat map of a show, row by row, with each
// seat's booked flag.
func (h *BrowseHandler) ListSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sweeper.Sweep(ctx); err != nil {
		c.Logger().Warnf("browse: pre-read sweep: %v", err)
	}
	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		c.Logger().Errorf("browse: get show %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load show"})
	}
	seats, err := h.Seats.ListByShow(ctx, id)
	if err != nil {
		c.Logger().Errorf("browse: list seats for show %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":         show.ID,
		"available_seats": show.AvailableSeats,
		"total_seats":     show.TotalSeats,
		"seats":           seats,
	})
}
