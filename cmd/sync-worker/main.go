package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medbook/doctor-booking-platform/internal/appointment"
	"github.com/medbook/doctor-booking-platform/internal/config"
	"github.com/medbook/doctor-booking-platform/internal/db"
	"github.com/medbook/doctor-booking-platform/internal/logging"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

// How far around today each reconciliation pass reaches. Past days beyond
// yesterday no longer matter for display and future days beyond a week are
// re-covered by later runs.
const (
	lookbackDays  = 1
	lookaheadDays = 7
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("sync-worker", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Setup("sync-worker", cfg.Env)
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("sync-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	apptRepo := appointment.NewPgRepository(pgPool)
	calendar := schedule.NewService(schedule.NewPgRepository(pgPool), apptRepo)

	// Run once at startup
	runOnce(rootCtx, apptRepo, calendar)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping sync worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, apptRepo, calendar)
		}
	}
}

func runOnce(ctx context.Context, repo *appointment.PgRepository, calendar *schedule.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	synced := 0

	for offset := -lookbackDays; offset <= lookaheadDays; offset++ {
		day := schedule.DayOf(start.AddDate(0, 0, offset))

		doctors, err := repo.DoctorsWithAppointmentsOn(runCtx, day)
		if err != nil {
			log.Error().Err(err).Str("date", day.String()).Msg("list doctors for sync")
			return
		}

		for _, doctorID := range doctors {
			if err := calendar.Sync(runCtx, doctorID, day); err != nil {
				log.Error().Err(err).
					Str("doctor_id", doctorID.String()).
					Str("date", day.String()).
					Msg("calendar sync failed")
				continue
			}
			synced++
		}
	}

	log.Info().Int("calendars", synced).Dur("took", time.Since(start)).Msg("sync run complete")
}
