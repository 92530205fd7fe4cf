// Package router wires the HTTP routes onto an echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ilqarli/show-booking/internal/config"
	"github.com/ilqarli/show-booking/internal/handler"
	"github.com/ilqarli/show-booking/internal/middleware"
	"github.com/ilqarli/show-booking/internal/model"
	"github.com/ilqarli/show-booking/internal/repository"
	"github.com/ilqarli/show-booking/internal/service"
)

// Deps bundles everything the routes need.
type Deps struct {
	DB       *sql.DB
	Cfg      config.Config
	Redis    *redis.Client // may be nil; cache and rate limiting degrade to no-ops
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Shows    *repository.ShowRepo
	Seats    *repository.SeatRepo
	Bookings *repository.BookingRepo
	Svc      service.ReservationService
	Sweeper  *service.Sweeper
}

// New builds the echo instance with all routes and middleware attached.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	auth := &handler.AuthHandler{Users: d.Users, Tokens: d.Tokens, Cfg: d.Cfg}
	browse := &handler.BrowseHandler{Shows: d.Shows, Seats: d.Seats, Sweeper: d.Sweeper}
	booking := &handler.BookingHandler{Svc: d.Svc, Bookings: d.Bookings}
	admin := &handler.AdminShowHandler{Shows: d.Shows, Bookings: d.Bookings, Svc: d.Svc, Sweeper: d.Sweeper}

	jwtAuth := middleware.JWTAuth(d.Cfg.JWTSecret)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), d.Redis)
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), d.Redis)

	e.GET("/healthz", handler.Health(d.DB))

	v1 := e.Group("/v1")

	a := v1.Group("/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.POST("/refresh", auth.Refresh)
	a.POST("/logout", auth.Logout)
	v1.GET("/me", auth.Me, jwtAuth)

	// Public browse endpoints; responses are cached briefly.
	v1.GET("/shows", browse.ListShows, cache)
	v1.GET("/shows/:id", browse.GetShow, cache)
	v1.GET("/shows/:id/seats", browse.ListSeats, cache)

	// Authenticated user endpoints. Reserve is rate limited per user.
	v1.POST("/shows/:id/reserve", booking.Reserve, jwtAuth, limit)
	v1.GET("/my-bookings", booking.MyBookings, jwtAuth)
	v1.GET("/bookings/:id", booking.GetBooking, jwtAuth)

	ad := v1.Group("/admin", jwtAuth, middleware.RequireRole(model.RoleAdmin))
	ad.POST("/shows", admin.CreateShow)
	ad.GET("/shows", admin.ListShows)
	ad.PATCH("/shows/:id/active", admin.SetShowActive)
	ad.GET("/shows/:id/bookings", admin.ListShowBookings)
	ad.POST("/sweep", admin.SweepNow)

	return e
}
