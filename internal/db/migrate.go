package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied on startup. Statements are idempotent so every binary
// (api-server, sync-worker, seed) can run them unconditionally.
//
// The partial unique index on appointments is the storage-level guarantee
// that at most one non-cancelled appointment exists per (doctor, date, slot):
// a second concurrent booking hits the index and surfaces as a conflict
// instead of a silent double-book.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id             uuid PRIMARY KEY,
		name           text NOT NULL,
		specialization text NOT NULL,
		email          text NOT NULL UNIQUE,
		phone          text NOT NULL,
		password_hash  text NOT NULL,
		created_at     timestamptz NOT NULL DEFAULT now(),
		updated_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id              uuid PRIMARY KEY,
		name            text NOT NULL,
		email           text NOT NULL UNIQUE,
		phone           text NOT NULL,
		age             int NOT NULL DEFAULT 0,
		address         text NOT NULL DEFAULT '',
		medical_history text[] NOT NULL DEFAULT '{}',
		password_hash   text NOT NULL,
		created_at      timestamptz NOT NULL DEFAULT now(),
		updated_at      timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS doctor_slots (
		doctor_id  uuid NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
		slot_date  date NOT NULL,
		slot_time  text NOT NULL,
		status     text NOT NULL DEFAULT 'free',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (doctor_id, slot_date, slot_time)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id               uuid PRIMARY KEY,
		patient_id       uuid NOT NULL,
		doctor_id        uuid NOT NULL,
		doctor_name      text NOT NULL,
		patient_name     text NOT NULL,
		specialization   text NOT NULL,
		appointment_date date NOT NULL,
		time_slot        text NOT NULL,
		status           text NOT NULL,
		created_at       timestamptz NOT NULL DEFAULT now(),
		updated_at       timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_patient
		ON appointments (patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date
		ON appointments (doctor_id, appointment_date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_booking
		ON appointments (doctor_id, appointment_date, time_slot)
		WHERE status <> 'Cancelled'`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
