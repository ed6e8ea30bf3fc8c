package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotFree   SlotStatus = "free"
	SlotBooked SlotStatus = "booked"
)

// Slot is one bookable window on a doctor's calendar. Time is the label
// "HH:MM - HH:MM"; slots are matched by label, not by normalized range.
type Slot struct {
	Time   string     `json:"time"`
	Status SlotStatus `json:"status"`
}

// DateSlots groups a doctor's slots for one calendar date.
type DateSlots struct {
	Date  Day    `json:"date"`
	Slots []Slot `json:"slots"`
}

// SlotRecord is the stored form: one row per (doctor, day, label).
type SlotRecord struct {
	DoctorID uuid.UUID
	Day      Day
	Time     string
	Status   SlotStatus
}

const labelSeparator = " - "

// ParseSlotLabel parses "HH:MM - HH:MM" into start and end expressed as
// minutes since midnight. The label is rejected when the separator is
// missing, either side is not a 24h clock time, or start >= end.
func ParseSlotLabel(label string) (startMin, endMin int, err error) {
	start, end, found := strings.Cut(label, labelSeparator)
	if !found {
		return 0, 0, fmt.Errorf("slot %q: missing %q separator", label, labelSeparator)
	}

	startMin, err = parseClock(strings.TrimSpace(start))
	if err != nil {
		return 0, 0, fmt.Errorf("slot %q: %w", label, err)
	}
	endMin, err = parseClock(strings.TrimSpace(end))
	if err != nil {
		return 0, 0, fmt.Errorf("slot %q: %w", label, err)
	}

	if startMin >= endMin {
		return 0, 0, fmt.Errorf("slot %q: start must be before end", label)
	}
	return startMin, endMin, nil
}

func parseClock(s string) (int, error) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}
