package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrPastDate      = errors.New("cannot add slots for a past date")
	ErrNoUsableSlots = errors.New("no valid slots to add")
	ErrDateNotFound  = errors.New("no slots configured for that date")
	ErrSlotBooked    = errors.New("slot has an active booking")
)

type Service struct {
	repo   Repository
	ledger Ledger
	now    func() time.Time
}

func NewService(repo Repository, ledger Ledger) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AddSlots merges candidate labels into the doctor's calendar for one day.
// The batch is best effort: malformed labels, duplicates and (for today)
// slots whose start has already passed are dropped individually, and the call
// fails only when nothing usable remains.
func (s *Service) AddSlots(ctx context.Context, doctorID uuid.UUID, day Day, labels []string) (DateSlots, error) {
	now := s.now()
	today := DayOf(now)

	if day.Before(today) {
		return DateSlots{}, ErrPastDate
	}

	existing, err := s.repo.ListByDoctorDay(ctx, doctorID, day)
	if err != nil {
		return DateSlots{}, fmt.Errorf("load existing slots: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, rec := range existing {
		seen[rec.Time] = true
	}

	nowMinutes := now.Hour()*60 + now.Minute()

	var usable []string
	for _, label := range labels {
		startMin, _, err := ParseSlotLabel(label)
		if err != nil {
			log.Debug().Str("doctor_id", doctorID.String()).Err(err).Msg("dropping malformed slot label")
			continue
		}
		if day.Equal(today) && startMin < nowMinutes {
			continue
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		usable = append(usable, label)
	}

	if len(usable) == 0 {
		return DateSlots{}, ErrNoUsableSlots
	}

	if err := s.repo.InsertSlots(ctx, doctorID, day, usable); err != nil {
		return DateSlots{}, fmt.Errorf("insert slots: %w", err)
	}

	updated, err := s.repo.ListByDoctorDay(ctx, doctorID, day)
	if err != nil {
		return DateSlots{}, fmt.Errorf("reload slots: %w", err)
	}
	return DateSlots{Date: day, Slots: toSlots(updated)}, nil
}

// Calendar returns the doctor's full slot calendar grouped per date, dates
// ascending and slots ordered by start time. Dates with zero slots cannot
// appear: a date exists only through its slot rows.
func (s *Service) Calendar(ctx context.Context, doctorID uuid.UUID) ([]DateSlots, error) {
	records, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	grouped := make(map[string][]SlotRecord)
	var order []Day
	for _, rec := range records {
		key := rec.Day.String()
		if _, ok := grouped[key]; !ok {
			order = append(order, rec.Day)
		}
		grouped[key] = append(grouped[key], rec)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	result := make([]DateSlots, 0, len(order))
	for _, day := range order {
		result = append(result, DateSlots{Date: day, Slots: toSlots(grouped[day.String()])})
	}
	return result, nil
}

// DeleteSlot removes one free slot. Whether the slot is deletable is decided
// against the appointment ledger, not the cached status field: the cache can
// drift, the ledger cannot.
func (s *Service) DeleteSlot(ctx context.Context, doctorID uuid.UUID, day Day, slotTime string) ([]Slot, error) {
	records, err := s.repo.ListByDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrDateNotFound
	}

	found := false
	for _, rec := range records {
		if rec.Time == slotTime {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrSlotNotFound
	}

	active, err := s.ledger.ActiveSlotTimes(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("check active bookings: %w", err)
	}
	for _, t := range active {
		if t == slotTime {
			return nil, ErrSlotBooked
		}
	}

	if err := s.repo.DeleteSlot(ctx, doctorID, day, slotTime); err != nil {
		return nil, err
	}

	remaining, err := s.repo.ListByDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("reload slots: %w", err)
	}
	return toSlots(remaining), nil
}

// Sync makes the cached slot statuses for one day an accurate projection of
// the appointment ledger: everything free, then every label held by a
// non-cancelled appointment booked. Idempotent; this is the repair pass for
// drift left by the non-atomic booking writes.
func (s *Service) Sync(ctx context.Context, doctorID uuid.UUID, day Day) error {
	active, err := s.ledger.ActiveSlotTimes(ctx, doctorID, day)
	if err != nil {
		return fmt.Errorf("load active bookings: %w", err)
	}

	if err := s.repo.ResetDay(ctx, doctorID, day); err != nil {
		return err
	}

	for _, slotTime := range active {
		err := s.repo.SetStatus(ctx, doctorID, day, slotTime, SlotBooked)
		if errors.Is(err, ErrSlotNotFound) {
			// Appointment exists without a calendar slot. The ledger stays
			// authoritative; there is just no cache row to update.
			log.Warn().
				Str("doctor_id", doctorID.String()).
				Str("date", day.String()).
				Str("time_slot", slotTime).
				Msg("active appointment has no matching calendar slot")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MarkSlot flips one cached slot status. Used by the booking side right after
// ledger writes to keep the visible window of drift small.
func (s *Service) MarkSlot(ctx context.Context, doctorID uuid.UUID, day Day, slotTime string, status SlotStatus) error {
	return s.repo.SetStatus(ctx, doctorID, day, slotTime, status)
}

// FreeSlotTimes lists the labels on a day that currently carry no active
// booking, per the ledger.
func (s *Service) FreeSlotTimes(ctx context.Context, doctorID uuid.UUID, day Day) ([]string, error) {
	records, err := s.repo.ListByDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	active, err := s.ledger.ActiveSlotTimes(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("load active bookings: %w", err)
	}
	held := make(map[string]bool, len(active))
	for _, t := range active {
		held[t] = true
	}

	var free []string
	for _, rec := range records {
		if !held[rec.Time] {
			free = append(free, rec.Time)
		}
	}
	return free, nil
}

func toSlots(records []SlotRecord) []Slot {
	slots := make([]Slot, 0, len(records))
	for _, rec := range records {
		slots = append(slots, Slot{Time: rec.Time, Status: rec.Status})
	}
	sort.SliceStable(slots, func(i, j int) bool {
		si, _, errI := ParseSlotLabel(slots[i].Time)
		sj, _, errJ := ParseSlotLabel(slots[j].Time)
		if errI != nil || errJ != nil {
			return slots[i].Time < slots[j].Time
		}
		return si < sj
	})
	return slots
}
