package main // Entry point package

import (
	"context" // Context for the expiry sweep goroutine
	"log"     // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/bus-seat-booking/internal/booking"    // Hold coordinator and lifecycle
	"github.com/iliyamo/bus-seat-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/bus-seat-booking/internal/database"   // MySQL connection
	"github.com/iliyamo/bus-seat-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/bus-seat-booking/internal/lockstore"  // Redis seat lock store
	"github.com/iliyamo/bus-seat-booking/internal/middleware" // Rate limit and cache middleware
	"github.com/iliyamo/bus-seat-booking/internal/queue"      // Payment event consumer
	"github.com/iliyamo/bus-seat-booking/internal/repository" // Data access layer
	"github.com/iliyamo/bus-seat-booking/internal/router"     // Route registration
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env vars win

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // May be nil; everything degrades gracefully
	if rdb == nil {
		log.Println("redis unavailable: seat locks fall back to database checks")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	routes := repository.NewRouteRepo(db)
	buses := repository.NewBusRepo(db)
	schedules := repository.NewScheduleRepo(db)
	reservations := repository.NewReservationRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)

	// Seat hold machinery
	locks := lockstore.New(rdb)
	coordinator := booking.NewCoordinator(schedules, reservations, bookings, locks)
	lifecycle := booking.NewLifecycle(reservations)

	// Background workers
	go func() {
		if err := queue.StartPaymentConsumer(lifecycle); err != nil {
			log.Printf("payment consumer stopped: %v", err)
		}
	}()
	go lifecycle.RunExpirySweep(context.Background(), cfg.ExpirySweepEvery)

	// HTTP wiring
	e := echo.New()
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(routes, schedules, reservations, bookings)
	customerH := handler.NewCustomerHandler(cfg, coordinator, lifecycle, routes, schedules, reservations, bookings, payments)
	operatorH := handler.NewOperatorHandler(routes, buses, schedules)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	router.RegisterCustomer(e, customerH, cfg.JWTSecret)
	router.RegisterOperator(e, operatorH, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
