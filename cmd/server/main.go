package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ilqarli/show-booking/internal/config"
	"github.com/ilqarli/show-booking/internal/database"
	"github.com/ilqarli/show-booking/internal/queue"
	"github.com/ilqarli/show-booking/internal/repository"
	"github.com/ilqarli/show-booking/internal/router"
	"github.com/ilqarli/show-booking/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	shows := repository.NewShowRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)

	store := service.NewSQLStore(db, shows, seats, bookings)
	publisher := queue.NewPublisher()
	svc := service.NewReservationService(store, publisher, cfg.HoldWindow)
	sweeper := service.NewSweeper(store, publisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx, cfg.SweepInterval)
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := router.New(router.Deps{
		DB:       db,
		Cfg:      cfg,
		Redis:    rdb,
		Users:    users,
		Tokens:   tokens,
		Shows:    shows,
		Seats:    seats,
		Bookings: bookings,
		Svc:      svc,
		Sweeper:  sweeper,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
