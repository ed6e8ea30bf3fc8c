package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSlotRecord(row pgx.Row) (*SlotRecord, error) {
	var rec SlotRecord
	var day time.Time

	err := row.Scan(
		&rec.DoctorID,
		&day,
		&rec.Time,
		&rec.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	// date column comes back as a midnight timestamp; convert at the boundary
	rec.Day = DayOf(day)
	return &rec, nil
}

func (r *PgRepository) InsertSlots(ctx context.Context, doctorID uuid.UUID, day Day, times []string) error {
	// ON CONFLICT keeps the insert idempotent against a concurrent add for the
	// same label; the service has already deduplicated against committed rows.
	for _, t := range times {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO doctor_slots (doctor_id, slot_date, slot_time, status, created_at, updated_at)
			VALUES ($1, $2, $3, 'free', now(), now())
			ON CONFLICT (doctor_id, slot_date, slot_time) DO NOTHING
		`, doctorID, day.Time(), t)
		if err != nil {
			return fmt.Errorf("insert slot %s %s: %w", day, t, err)
		}
	}
	return nil
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]SlotRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, slot_date, slot_time, status
		FROM doctor_slots
		WHERE doctor_id = $1
		ORDER BY slot_date, slot_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlotRecords(rows)
}

func (r *PgRepository) ListByDoctorDay(ctx context.Context, doctorID uuid.UUID, day Day) ([]SlotRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, slot_date, slot_time, status
		FROM doctor_slots
		WHERE doctor_id = $1 AND slot_date = $2
		ORDER BY slot_time
	`, doctorID, day.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlotRecords(rows)
}

func collectSlotRecords(rows pgx.Rows) ([]SlotRecord, error) {
	var result []SlotRecord
	for rows.Next() {
		rec, err := scanSlotRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) DeleteSlot(ctx context.Context, doctorID uuid.UUID, day Day, slotTime string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND slot_time = $3
	`, doctorID, day.Time(), slotTime)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) SetStatus(ctx context.Context, doctorID uuid.UUID, day Day, slotTime string, status SlotStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctor_slots
		SET status = $4,
		    updated_at = now()
		WHERE doctor_id = $1 AND slot_date = $2 AND slot_time = $3
	`, doctorID, day.Time(), slotTime, status)
	if err != nil {
		return fmt.Errorf("set slot status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) ResetDay(ctx context.Context, doctorID uuid.UUID, day Day) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctor_slots
		SET status = 'free',
		    updated_at = now()
		WHERE doctor_id = $1 AND slot_date = $2
	`, doctorID, day.Time())
	if err != nil {
		return fmt.Errorf("reset day: %w", err)
	}
	return nil
}
