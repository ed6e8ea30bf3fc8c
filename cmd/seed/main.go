package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"

	"github.com/medbook/doctor-booking-platform/internal/config"
	"github.com/medbook/doctor-booking-platform/internal/db"
	"github.com/medbook/doctor-booking-platform/internal/directory"
	"github.com/medbook/doctor-booking-platform/internal/logging"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

func main() {
	doctorCount := flag.Int("doctors", 25, "number of doctors to create")
	patientCount := flag.Int("patients", 200, "number of patients to create")
	slotDays := flag.Int("days", 5, "days of slots per doctor, starting tomorrow")
	flag.Parse()

	logging.Setup("seed", "dev")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("POSTGRES_DSN is required")
		}
		dsn = cfg.PostgresDSN
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	dir := directory.NewService(directory.NewPgRepository(pool))
	slotRepo := schedule.NewPgRepository(pool)

	log.Info().Int("count", *doctorCount).Msg("seeding doctors")
	for i := 0; i < *doctorCount; i++ {
		spec := directory.Specializations[gofakeit.Number(0, len(directory.Specializations)-1)]
		doctor, err := dir.RegisterDoctor(context.Background(), directory.NewDoctor{
			Name:           "Dr. " + gofakeit.Name(),
			Specialization: spec,
			Email:          gofakeit.Email(),
			Phone:          gofakeit.Phone(),
			Password:       "password123",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("seed doctor")
		}

		for d := 1; d <= *slotDays; d++ {
			day := schedule.DayOf(time.Now().AddDate(0, 0, d))
			if err := slotRepo.InsertSlots(context.Background(), doctor.ID, day, morningSlots()); err != nil {
				log.Fatal().Err(err).Msg("seed slots")
			}
		}
	}

	log.Info().Int("count", *patientCount).Msg("seeding patients")
	for i := 0; i < *patientCount; i++ {
		_, err := dir.RegisterPatient(context.Background(), directory.NewPatient{
			Name:     gofakeit.Name(),
			Email:    gofakeit.Email(),
			Phone:    gofakeit.Phone(),
			Age:      gofakeit.Number(18, 90),
			Address:  gofakeit.Address().Address,
			Password: "password123",
			MedicalHistory: []string{
				gofakeit.RandomString([]string{"none", "hypertension", "diabetes", "asthma"}),
			},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("seed patient")
		}
	}

	log.Info().Msg("seed complete")
}

// morningSlots builds half-hour labels from 09:00 to 12:00.
func morningSlots() []string {
	var slots []string
	for min := 9 * 60; min < 12*60; min += 30 {
		slots = append(slots, fmt.Sprintf("%02d:%02d - %02d:%02d",
			min/60, min%60, (min+30)/60, (min+30)%60))
	}
	return slots
}
