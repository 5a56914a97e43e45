package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/config"
	"github.com/mesalibre/mesalibre/internal/database"
	"github.com/mesalibre/mesalibre/internal/handler"
	"github.com/mesalibre/mesalibre/internal/logging"
	"github.com/mesalibre/mesalibre/internal/metrics"
	"github.com/mesalibre/mesalibre/internal/middleware"
	"github.com/mesalibre/mesalibre/internal/queue"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/router"
	"github.com/mesalibre/mesalibre/internal/service"
	"github.com/mesalibre/mesalibre/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.Env)
	metrics.Register()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("database migrate failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable: sessions, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venueTypes := repository.NewVenueTypeRepo(db)
	venues := repository.NewVenueRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)

	cacheInv := middleware.NewCacheInvalidator(config.LoadCacheConfig(), rdb)
	sessions := session.NewStore(rdb, cfg.Session.TTL)
	reconciler := session.NewReconciler(sessions, users, log, cfg.Session.StartupDelay, cfg.Session.Interval)

	publisher := service.NewEventPublisher(cfg.AMQPURL, log)
	eligibility := service.NewEligibilityService(reservations, reviews, nil)
	places := service.NewPlacesClient(cfg.PlacesAPIKey)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reconciler.Run(ctx)
	if cfg.AMQPURL != "" {
		go queue.StartDecisionConsumer(cfg.AMQPURL, log)
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, tokens, sessions, reconciler),
		Public:      handler.NewPublicHandler(venueTypes, venues, reviews, places),
		OwnerVenues: handler.NewOwnerVenueHandler(venues, venueTypes, reservations),
		OwnerRes:    handler.NewOwnerReservationHandler(reservations, venues, publisher),
		CustomerRes: handler.NewCustomerReservationHandler(reservations, venues, publisher),
		Reviews:     handler.NewReviewHandler(reviews, venues, eligibility),
		Admin:       handler.NewAdminHandler(users, tokens, venues, reviews, reservations, sessions, reconciler, publisher, cacheInv),
	}, cfg, sessions, rdb)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
}
