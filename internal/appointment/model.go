package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

type Status string

const (
	// StatusPending is reserved in the lifecycle but never assigned: bookings
	// are confirmed on creation.
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Appointment is one booking. Doctor and patient names and the specialization
// are copied at booking time and never re-synced, so the record stays
// historically accurate if the doctor's profile later changes.
type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	DoctorName     string
	PatientName    string
	Specialization string
	Day            schedule.Day
	TimeSlot       string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
