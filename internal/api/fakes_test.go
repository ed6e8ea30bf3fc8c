package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/doctor-booking-platform/internal/appointment"
	"github.com/medbook/doctor-booking-platform/internal/directory"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

// In-memory repositories backing the router under test. They mirror the
// Postgres behavior the services rely on: the slot table's composite key and
// the partial uniqueness of non-cancelled appointments per coordinate.

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type memSlotRepo struct {
	mu      sync.Mutex
	records []schedule.SlotRecord
}

func (m *memSlotRepo) InsertSlots(_ context.Context, doctorID uuid.UUID, day schedule.Day, times []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range times {
		if m.find(doctorID, day, t) >= 0 {
			continue
		}
		m.records = append(m.records, schedule.SlotRecord{DoctorID: doctorID, Day: day, Time: t, Status: schedule.SlotFree})
	}
	return nil
}

func (m *memSlotRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]schedule.SlotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.SlotRecord
	for _, rec := range m.records {
		if rec.DoctorID == doctorID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memSlotRepo) ListByDoctorDay(_ context.Context, doctorID uuid.UUID, day schedule.Day) ([]schedule.SlotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.SlotRecord
	for _, rec := range m.records {
		if rec.DoctorID == doctorID && rec.Day.Equal(day) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memSlotRepo) DeleteSlot(_ context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(doctorID, day, slotTime)
	if i < 0 {
		return schedule.ErrSlotNotFound
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return nil
}

func (m *memSlotRepo) SetStatus(_ context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string, status schedule.SlotStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(doctorID, day, slotTime)
	if i < 0 {
		return schedule.ErrSlotNotFound
	}
	m.records[i].Status = status
	return nil
}

func (m *memSlotRepo) ResetDay(_ context.Context, doctorID uuid.UUID, day schedule.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.records {
		if rec.DoctorID == doctorID && rec.Day.Equal(day) {
			m.records[i].Status = schedule.SlotFree
		}
	}
	return nil
}

func (m *memSlotRepo) find(doctorID uuid.UUID, day schedule.Day, slotTime string) int {
	for i, rec := range m.records {
		if rec.DoctorID == doctorID && rec.Day.Equal(day) && rec.Time == slotTime {
			return i
		}
	}
	return -1
}

type memApptRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]appointment.Appointment
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{appts: make(map[uuid.UUID]appointment.Appointment)}
}

func (m *memApptRepo) Insert(_ context.Context, appt appointment.Appointment) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appts {
		if existing.DoctorID == appt.DoctorID &&
			existing.Day.Equal(appt.Day) &&
			existing.TimeSlot == appt.TimeSlot &&
			existing.Status != appointment.StatusCancelled {
			return nil, appointment.ErrActiveBookingExists
		}
	}
	appt.CreatedAt = fixedNow
	appt.UpdatedAt = fixedNow
	m.appts[appt.ID] = appt
	return &appt, nil
}

func (m *memApptRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &appt, nil
}

func (m *memApptRepo) GetActiveForSlot(_ context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, appt := range m.appts {
		if appt.DoctorID == doctorID && appt.Day.Equal(day) && appt.TimeSlot == slotTime && appt.Status != appointment.StatusCancelled {
			a := appt
			return &a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (m *memApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to appointment.Status) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok || appt.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}
	appt.Status = to
	appt.UpdatedAt = fixedNow
	m.appts[id] = appt
	return &appt, nil
}

func (m *memApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []appointment.Appointment
	for _, appt := range m.appts {
		if appt.PatientID == patientID {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *memApptRepo) ListByDoctorDay(_ context.Context, doctorID uuid.UUID, day schedule.Day) ([]appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []appointment.Appointment
	for _, appt := range m.appts {
		if appt.DoctorID == doctorID && appt.Day.Equal(day) {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *memApptRepo) ListAll(_ context.Context) ([]appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]appointment.Appointment, 0, len(m.appts))
	for _, appt := range m.appts {
		out = append(out, appt)
	}
	return out, nil
}

func (m *memApptRepo) ActiveSlotTimes(_ context.Context, doctorID uuid.UUID, day schedule.Day) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, appt := range m.appts {
		if appt.DoctorID == doctorID && appt.Day.Equal(day) && appt.Status != appointment.StatusCancelled {
			out = append(out, appt.TimeSlot)
		}
	}
	return out, nil
}

func (m *memApptRepo) DoctorsWithAppointmentsOn(_ context.Context, day schedule.Day) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, appt := range m.appts {
		if appt.Day.Equal(day) && !seen[appt.DoctorID] {
			seen[appt.DoctorID] = true
			out = append(out, appt.DoctorID)
		}
	}
	return out, nil
}

type memDirectory struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]directory.Doctor
	patients map[uuid.UUID]directory.Patient
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		doctors:  make(map[uuid.UUID]directory.Doctor),
		patients: make(map[uuid.UUID]directory.Patient),
	}
}

func (m *memDirectory) InsertDoctor(_ context.Context, d directory.Doctor) (*directory.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.doctors {
		if existing.Email == d.Email {
			return nil, directory.ErrEmailTaken
		}
	}
	m.doctors[d.ID] = d
	return &d, nil
}

func (m *memDirectory) GetDoctorByID(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, directory.ErrDoctorNotFound
	}
	return &d, nil
}

func (m *memDirectory) GetDoctorByEmail(_ context.Context, email string) (*directory.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.Email == email {
			doc := d
			return &doc, nil
		}
	}
	return nil, directory.ErrDoctorNotFound
}

func (m *memDirectory) ListDoctors(_ context.Context) ([]directory.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]directory.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, d)
	}
	return out, nil
}

func (m *memDirectory) InsertPatient(_ context.Context, p directory.Patient) (*directory.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.patients {
		if existing.Email == p.Email {
			return nil, directory.ErrEmailTaken
		}
	}
	m.patients[p.ID] = p
	return &p, nil
}

func (m *memDirectory) GetPatientByID(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	return &p, nil
}

func (m *memDirectory) GetPatientByEmail(_ context.Context, email string) (*directory.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.Email == email {
			pat := p
			return &pat, nil
		}
	}
	return nil, directory.ErrPatientNotFound
}

// passLocker runs the critical section inline. The booking service's
// correctness under this locker rests on the repository's uniqueness check,
// which is exactly what the HTTP tests exercise.
type passLocker struct{}

func (passLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
