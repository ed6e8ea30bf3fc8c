package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medbook/doctor-booking-platform/internal/api"
	"github.com/medbook/doctor-booking-platform/internal/appointment"
	"github.com/medbook/doctor-booking-platform/internal/config"
	"github.com/medbook/doctor-booking-platform/internal/db"
	"github.com/medbook/doctor-booking-platform/internal/directory"
	"github.com/medbook/doctor-booking-platform/internal/identity"
	"github.com/medbook/doctor-booking-platform/internal/logging"
	redisclient "github.com/medbook/doctor-booking-platform/internal/redis"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("api-server", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Setup("api-server", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		log.Fatal().Err(err).Msg("schema migration error")
	}
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	apptRepo := appointment.NewPgRepository(pgPool)
	slotRepo := schedule.NewPgRepository(pgPool)
	dirRepo := directory.NewPgRepository(pgPool)

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	calendar := schedule.NewService(slotRepo, apptRepo)
	appointments := appointment.NewService(apptRepo, calendar, locker)
	dir := directory.NewService(dirRepo)
	tokens := identity.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	router := api.NewRouter(api.RouterConfig{
		Appointments: appointments,
		Calendar:     calendar,
		Directory:    dir,
		Tokens:       tokens,
		Admin:        api.AdminCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}
