package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medbook/doctor-booking-platform/internal/identity"
	redisclient "github.com/medbook/doctor-booking-platform/internal/redis"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

var (
	ErrMissingFields     = errors.New("all booking fields are required")
	ErrInvalidSlotLabel  = errors.New("time_slot is not a valid slot label")
	ErrSlotTaken         = errors.New("slot already has an active appointment")
	ErrBookingInProgress = errors.New("slot is currently being booked, please retry")
	ErrNotOwner          = errors.New("appointment belongs to another patient")
	ErrAlreadyCancelled  = errors.New("appointment is already cancelled")
	ErrAlreadyCompleted  = errors.New("appointment is already completed")
	ErrPastAppointment   = errors.New("cannot cancel a past appointment")
	ErrFutureAppointment = errors.New("cannot complete a future appointment")
	ErrUpcomingSlot      = errors.New("cannot complete an upcoming slot")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Calendar is the slice of the slot calendar the booking side needs: flip a
// cached status right after a ledger write, and run the repair pass.
type Calendar interface {
	MarkSlot(ctx context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string, status schedule.SlotStatus) error
	Sync(ctx context.Context, doctorID uuid.UUID, day schedule.Day) error
}

type BookingRequest struct {
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	DoctorName     string
	PatientName    string
	Specialization string
	Day            schedule.Day
	TimeSlot       string
}

type Service struct {
	repo     Repository
	calendar Calendar
	locker   redisclient.Locker
	now      func() time.Time
}

func NewService(repo Repository, calendar Calendar, locker redisclient.Locker) *Service {
	return &Service{
		repo:     repo,
		calendar: calendar,
		locker:   locker,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Book reserves a slot for a patient as a Confirmed appointment.
//
// Two concurrent calls for the same (doctor, date, slot) cannot both succeed:
// the per-coordinate lock serializes the check-then-insert, and the partial
// unique index backstops it should the lock ever be bypassed. The slot-status
// cache update happens immediately after the insert but is a separate write;
// its failure is logged, not returned, and the synchronizer repairs it.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.PatientID == uuid.Nil || req.DoctorID == uuid.Nil ||
		req.DoctorName == "" || req.PatientName == "" || req.Specialization == "" ||
		req.Day.IsZero() || req.TimeSlot == "" {
		return nil, ErrMissingFields
	}
	if _, _, err := schedule.ParseSlotLabel(req.TimeSlot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlotLabel, err)
	}

	var created *Appointment

	err := s.locker.WithBookingLock(ctx, req.DoctorID, req.Day.String(), req.TimeSlot, func(lockCtx context.Context) error {
		existing, err := s.repo.GetActiveForSlot(lockCtx, req.DoctorID, req.Day, req.TimeSlot)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check active appointment: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		appt, err := s.repo.Insert(lockCtx, Appointment{
			ID:             uuid.New(),
			PatientID:      req.PatientID,
			DoctorID:       req.DoctorID,
			DoctorName:     req.DoctorName,
			PatientName:    req.PatientName,
			Specialization: req.Specialization,
			Day:            req.Day,
			TimeSlot:       req.TimeSlot,
			Status:         StatusConfirmed,
		})
		if errors.Is(err, ErrActiveBookingExists) {
			return ErrSlotTaken
		}
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.markSlot(ctx, created.DoctorID, created.Day, created.TimeSlot, schedule.SlotBooked)

	log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", created.DoctorID.String()).
		Str("date", created.Day.String()).
		Str("time_slot", created.TimeSlot).
		Msg("appointment booked")

	return created, nil
}

// Cancel moves a Confirmed appointment to Cancelled and frees its slot.
// Patients may only cancel their own, and only future-or-today appointments;
// the doctor-initiated path carries no date restriction.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor identity.Actor) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	}

	if actor.Role == identity.RolePatient {
		if actor.ID != appt.PatientID {
			return nil, ErrNotOwner
		}
		if appt.Day.Before(schedule.DayOf(s.now())) {
			return nil, ErrPastAppointment
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusConfirmed, StatusCancelled)
	if errors.Is(err, ErrAppointmentNotFound) {
		// Status changed under us between the read and the update.
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.markSlot(ctx, updated.DoctorID, updated.Day, updated.TimeSlot, schedule.SlotFree)

	log.Info().
		Str("appointment_id", updated.ID.String()).
		Str("actor_role", string(actor.Role)).
		Msg("appointment cancelled")

	return updated, nil
}

// Complete marks an elapsed appointment Completed. Past dates complete
// unconditionally; today's complete only once the slot's start time has
// passed; future dates never.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	}

	now := s.now()
	today := schedule.DayOf(now)

	if appt.Day.After(today) {
		return nil, ErrFutureAppointment
	}

	if appt.Day.Equal(today) {
		startMin, _, parseErr := schedule.ParseSlotLabel(appt.TimeSlot)
		if parseErr != nil {
			// Ledger rows predating label validation; nothing to gate on.
			log.Warn().Str("appointment_id", id.String()).Str("time_slot", appt.TimeSlot).
				Msg("completing appointment with unparseable slot label")
		} else {
			slotStart := appt.Day.At(startMin/60, startMin%60, now.Location())
			if slotStart.After(now) {
				return nil, ErrUpcomingSlot
			}
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusConfirmed, StatusCompleted)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	return updated, nil
}

// ListByDoctorDay returns a doctor's appointments for one day, running the
// synchronizer first so the calendar read right after reflects the ledger. A
// sync failure is logged and does not fail the listing (the ledger, which is
// what gets returned, remains authoritative).
func (s *Service) ListByDoctorDay(ctx context.Context, doctorID uuid.UUID, day schedule.Day) ([]Appointment, error) {
	if err := s.calendar.Sync(ctx, doctorID, day); err != nil {
		log.Error().Err(err).
			Str("doctor_id", doctorID.String()).
			Str("date", day.String()).
			Msg("slot sync failed, serving ledger data")
	}
	return s.repo.ListByDoctorDay(ctx, doctorID, day)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAll(ctx)
}

// markSlot updates the cached slot status after a ledger write. Best effort:
// a missing row means the appointment has no calendar linkage, any other
// failure is drift the synchronizer will repair.
func (s *Service) markSlot(ctx context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string, status schedule.SlotStatus) {
	err := s.calendar.MarkSlot(ctx, doctorID, day, slotTime, status)
	if err == nil {
		return
	}
	evt := log.Warn()
	if !errors.Is(err, schedule.ErrSlotNotFound) {
		evt = log.Error()
	}
	evt.Err(err).
		Str("doctor_id", doctorID.String()).
		Str("date", day.String()).
		Str("time_slot", slotTime).
		Str("target_status", string(status)).
		Msg("slot status update failed")
}
