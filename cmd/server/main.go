package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/minhokang/car-sharing-reservation/internal/config"
	"github.com/minhokang/car-sharing-reservation/internal/database"
	"github.com/minhokang/car-sharing-reservation/internal/handler"
	"github.com/minhokang/car-sharing-reservation/internal/queue"
	"github.com/minhokang/car-sharing-reservation/internal/repository"
	"github.com/minhokang/car-sharing-reservation/internal/router"
	"github.com/minhokang/car-sharing-reservation/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the browse response cache and the rate limiter; a nil
	// client simply disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: response cache and rate limiting disabled")
	}

	// Background consumer appends reservation events to logs/reservation.log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	authHandler := handler.NewAuthHandler(cfg,
		repository.NewMemberRepo(db), repository.NewTokenRepo(db),
		repository.NewCouponRepo(db))
	reservationHandler := handler.NewReservationHandler(
		service.NewReservationService(db),
		service.NewSettlementService(db),
		service.NewBrowseService(db))
	browseHandler := handler.NewBrowseHandler(service.NewBrowseService(db))

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterReservations(e, reservationHandler, cfg.JWTSecret)
	router.RegisterBrowse(e, browseHandler, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
