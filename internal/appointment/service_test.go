package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/doctor-booking-platform/internal/identity"
	redisclient "github.com/medbook/doctor-booking-platform/internal/redis"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memApptRepo keeps the ledger in memory and enforces the same partial
// uniqueness rule as the database index: at most one non-cancelled row per
// (doctor, date, slot).
type memApptRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]Appointment
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{appts: make(map[uuid.UUID]Appointment)}
}

func (m *memApptRepo) Insert(_ context.Context, appt Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appts {
		if existing.DoctorID == appt.DoctorID &&
			existing.Day.Equal(appt.Day) &&
			existing.TimeSlot == appt.TimeSlot &&
			existing.Status != StatusCancelled {
			return nil, ErrActiveBookingExists
		}
	}
	appt.CreatedAt = fixedNow
	appt.UpdatedAt = fixedNow
	m.appts[appt.ID] = appt
	return &appt, nil
}

func (m *memApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &appt, nil
}

func (m *memApptRepo) GetActiveForSlot(_ context.Context, doctorID uuid.UUID, day schedule.Day, slotTime string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, appt := range m.appts {
		if appt.DoctorID == doctorID && appt.Day.Equal(day) && appt.TimeSlot == slotTime && appt.Status != StatusCancelled {
			a := appt
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *memApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok || appt.Status != from {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = to
	appt.UpdatedAt = fixedNow
	m.appts[id] = appt
	return &appt, nil
}

func (m *memApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, appt := range m.appts {
		if appt.PatientID == patientID {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *memApptRepo) ListByDoctorDay(_ context.Context, doctorID uuid.UUID, day schedule.Day) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, appt := range m.appts {
		if appt.DoctorID == doctorID && appt.Day.Equal(day) {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *memApptRepo) ListAll(_ context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Appointment, 0, len(m.appts))
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
		if appt.DoctorID == doctorID && appt.Day.Equal(day) && appt.Status != StatusCancelled {
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

type markCall struct {
	slotTime string
	status   schedule.SlotStatus
}

type fakeCalendar struct {
	mu    sync.Mutex
	marks []markCall
	syncs int
}

func (f *fakeCalendar) MarkSlot(_ context.Context, _ uuid.UUID, _ schedule.Day, slotTime string, status schedule.SlotStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, markCall{slotTime: slotTime, status: status})
	return nil
}

func (f *fakeCalendar) Sync(_ context.Context, _ uuid.UUID, _ schedule.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	return nil
}

// mutexLocker serializes callers per coordinate like the Redis lock does,
// but blocks instead of failing fast.
type mutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *mutexLocker) WithBookingLock(ctx context.Context, doctorID uuid.UUID, date, slot string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	key := doctorID.String() + "|" + date + "|" + slot
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

// heldLocker simulates a coordinate whose lock another booking holds.
type heldLocker struct{}

func (heldLocker) WithBookingLock(context.Context, uuid.UUID, string, string, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService() (*Service, *memApptRepo, *fakeCalendar) {
	repo := newMemApptRepo()
	cal := &fakeCalendar{}
	svc := NewService(repo, cal, &mutexLocker{}).WithClock(fixedClock)
	return svc, repo, cal
}

func mustDay(t *testing.T, s string) schedule.Day {
	t.Helper()
	day, err := schedule.ParseDay(s)
	require.NoError(t, err)
	return day
}

func validRequest(t *testing.T) BookingRequest {
	return BookingRequest{
		PatientID:      uuid.New(),
		DoctorID:       uuid.New(),
		DoctorName:     "Dr. Asha Rao",
		PatientName:    "Ben Ito",
		Specialization: "Cardiology",
		Day:            mustDay(t, "2025-06-10"),
		TimeSlot:       "09:00 - 09:30",
	}
}

func TestBookCreatesConfirmedAppointment(t *testing.T) {
	svc, _, cal := newTestService()
	req := validRequest(t)

	appt, err := svc.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, req.PatientID, appt.PatientID)
	assert.Equal(t, req.TimeSlot, appt.TimeSlot)
	assert.NotEqual(t, uuid.Nil, appt.ID)

	require.Len(t, cal.marks, 1)
	assert.Equal(t, markCall{slotTime: req.TimeSlot, status: schedule.SlotBooked}, cal.marks[0])
}

func TestBookValidation(t *testing.T) {
	svc, _, _ := newTestService()

	req := validRequest(t)
	req.PatientName = ""
	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingFields)

	req = validRequest(t)
	req.TimeSlot = "9am to 10am"
	_, err = svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidSlotLabel)
}

func TestBookRejectsTakenSlot(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest(t)

	_, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	second := req
	second.PatientID = uuid.New()
	second.PatientName = "Cara Lund"
	_, err = svc.Book(context.Background(), second)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookAllowsOtherSlotsAndDoctors(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest(t)

	_, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	other := req
	other.TimeSlot = "10:00 - 10:30"
	_, err = svc.Book(context.Background(), other)
	assert.NoError(t, err)

	elsewhere := req
	elsewhere.DoctorID = uuid.New()
	_, err = svc.Book(context.Background(), elsewhere)
	assert.NoError(t, err)
}

func TestBookAfterCancelSucceeds(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest(t)

	appt, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), appt.ID, identity.Actor{Role: identity.RolePatient, ID: req.PatientID})
	require.NoError(t, err)

	rebook := req
	rebook.PatientID = uuid.New()
	_, err = svc.Book(context.Background(), rebook)
	assert.NoError(t, err)
}

func TestBookWhileLockHeld(t *testing.T) {
	repo := newMemApptRepo()
	svc := NewService(repo, &fakeCalendar{}, heldLocker{}).WithClock(fixedClock)

	_, err := svc.Book(context.Background(), validRequest(t))
	assert.ErrorIs(t, err, ErrBookingInProgress)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	svc, repo, _ := newTestService()
	base := validRequest(t)

	const workers = 16
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := base
			req.PatientID = uuid.New()
			<-start
			_, errs[i] = svc.Book(context.Background(), req)
		}(i)
	}
	close(start)
	wg.Wait()

	confirmed := 0
	for _, err := range errs {
		if err == nil {
			confirmed++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, confirmed, "exactly one booking must win")

	active, err := repo.ActiveSlotTimes(context.Background(), base.DoctorID, base.Day)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCancelByOwner(t *testing.T) {
	svc, _, cal := newTestService()
	req := validRequest(t)
	appt, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), appt.ID, identity.Actor{Role: identity.RolePatient, ID: req.PatientID})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// booked on creation, freed on cancel
	require.Len(t, cal.marks, 2)
	assert.Equal(t, schedule.SlotFree, cal.marks[1].status)
}

func TestCancelByStrangerFails(t *testing.T) {
	svc, _, _ := newTestService()
	appt, err := svc.Book(context.Background(), validRequest(t))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), appt.ID, identity.Actor{Role: identity.RolePatient, ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelPastAppointment(t *testing.T) {
	svc, repo, _ := newTestService()
	req := validRequest(t)
	req.Day = mustDay(t, "2025-05-20") // before the fixed clock's today

	appt, err := repo.Insert(context.Background(), Appointment{
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
	require.NoError(t, err)

	// A patient cannot unwind history
	_, err = svc.Cancel(context.Background(), appt.ID, identity.Actor{Role: identity.RolePatient, ID: req.PatientID})
	assert.ErrorIs(t, err, ErrPastAppointment)

	// The doctor path carries no date restriction
	cancelled, err := svc.Cancel(context.Background(), appt.ID, identity.Actor{Role: identity.RoleDoctor, ID: req.DoctorID})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestCancelTerminalStates(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest(t)
	appt, err := svc.Book(context.Background(), req)
	require.NoError(t, err)
	owner := identity.Actor{Role: identity.RolePatient, ID: req.PatientID}

	_, err = svc.Cancel(context.Background(), appt.ID, owner)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), appt.ID, owner)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelUnknownAppointment(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Cancel(context.Background(), uuid.New(), identity.Actor{Role: identity.RoleDoctor, ID: uuid.New()})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func insertConfirmed(t *testing.T, repo *memApptRepo, day schedule.Day, slot string) *Appointment {
	t.Helper()
	appt, err := repo.Insert(context.Background(), Appointment{
		ID:             uuid.New(),
		PatientID:      uuid.New(),
		DoctorID:       uuid.New(),
		DoctorName:     "Dr. Asha Rao",
		PatientName:    "Ben Ito",
		Specialization: "Cardiology",
		Day:            day,
		TimeSlot:       slot,
		Status:         StatusConfirmed,
	})
	require.NoError(t, err)
	return appt
}

func TestCompleteFutureAppointmentFails(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := insertConfirmed(t, repo, mustDay(t, "2025-06-02"), "09:00 - 09:30")

	_, err := svc.Complete(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrFutureAppointment)
}

func TestCompletePastAppointment(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := insertConfirmed(t, repo, mustDay(t, "2025-05-31"), "23:00 - 23:30")

	completed, err := svc.Complete(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
}

func TestCompleteTodayGatedOnSlotStart(t *testing.T) {
	// Clock is 10:00 on 2025-06-01
	svc, repo, _ := newTestService()
	today := mustDay(t, "2025-06-01")

	upcoming := insertConfirmed(t, repo, today, "14:00 - 14:30")
	_, err := svc.Complete(context.Background(), upcoming.ID)
	assert.ErrorIs(t, err, ErrUpcomingSlot)

	elapsed := insertConfirmed(t, repo, today, "09:00 - 09:30")
	completed, err := svc.Complete(context.Background(), elapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
}

func TestCompleteTerminalStates(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := insertConfirmed(t, repo, mustDay(t, "2025-05-31"), "09:00 - 09:30")

	_, err := svc.Complete(context.Background(), appt.ID)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestListByDoctorDaySyncsFirst(t *testing.T) {
	svc, repo, cal := newTestService()
	day := mustDay(t, "2025-06-10")
	appt := insertConfirmed(t, repo, day, "09:00 - 09:30")

	appts, err := svc.ListByDoctorDay(context.Background(), appt.DoctorID, day)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, 1, cal.syncs)
}
