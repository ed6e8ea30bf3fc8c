package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrActiveBookingExists is returned by Insert when the unique index on
	// non-cancelled (doctor, date, slot) rejects the row.
	ErrActiveBookingExists = errors.New("slot already has an active appointment")
)

// Repository contains all DB interactions needed by the booking services.
type Repository interface {
	Insert(ctx context.Context, appt Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// GetActiveForSlot finds the non-cancelled appointment holding one
	// calendar coordinate, ErrAppointmentNotFound when the slot is free.
	GetActiveForSlot(ctx context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string) (*Appointment, error)

	// UpdateStatus transitions id from one status to another atomically and
	// returns ErrAppointmentNotFound when the row is missing or not in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByDoctorDay(ctx context.Context, doctorID uuid.UUID, day schedule.Day) ([]Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)

	// ActiveSlotTimes implements schedule.Ledger: labels on a day held by a
	// non-cancelled appointment.
	ActiveSlotTimes(ctx context.Context, doctorID uuid.UUID, day schedule.Day) ([]string, error)

	// DoctorsWithAppointmentsOn lists doctors having any appointment on the
	// day, for the reconciliation worker.
	DoctorsWithAppointmentsOn(ctx context.Context, day schedule.Day) ([]uuid.UUID, error)
}
